package value

import "errors"

// ErrFreezeCycle is returned when Freeze discovers a Ref that (directly
// or indirectly) contains itself — spec.md §9: "detect this in freeze
// by marking in-progress nodes and erroring on re-entry; do not rely on
// GC to observe cycles silently."
var ErrFreezeCycle = errors.New("value: cycle detected while freezing")

// ErrFreezeChannel is returned when Freeze is asked to freeze a channel
// value (spec.md §4.1: "reject freezing channels").
var ErrFreezeChannel = errors.New("value: channels cannot be frozen")

// Freeze recursively sets Phase = Crystal on every transitively
// reachable value slot in place, mirroring spec.md §4.1. It rejects
// channels outright and detects Ref cycles by marking in-progress
// nodes.
func Freeze(v *Value) error {
	return freeze(v, make(map[*RefData]bool))
}

func freeze(v *Value, inProgress map[*RefData]bool) error {
	switch v.Kind {
	case KindChannel:
		return ErrFreezeChannel
	case KindArray:
		a := ArrayOf(*v)
		for i := range a.Elems {
			if err := freeze(&a.Elems[i], inProgress); err != nil {
				return err
			}
		}
	case KindTuple:
		t := TupleOf(*v)
		for i := range t.Elems {
			if err := freeze(&t.Elems[i], inProgress); err != nil {
				return err
			}
		}
	case KindMap:
		for _, e := range MapOf(*v).Entries() {
			if err := freeze(&e.Val, inProgress); err != nil {
				return err
			}
		}
	case KindSet:
		// set elements are immutable-by-dedup-key already; nothing to recurse.
	case KindStruct:
		s := StructOf(*v)
		for i := range s.FieldValues {
			if err := freeze(&s.FieldValues[i], inProgress); err != nil {
				return err
			}
		}
	case KindEnum:
		e := EnumOf(*v)
		for i := range e.Payload {
			if err := freeze(&e.Payload[i], inProgress); err != nil {
				return err
			}
		}
	case KindRef:
		r := RefOf(*v)
		if inProgress[r] {
			return ErrFreezeCycle
		}
		inProgress[r] = true
		err := freeze(&r.Inner, inProgress)
		delete(inProgress, r)
		if err != nil {
			return err
		}
	}
	v.Phase = Crystal
	return nil
}

// ErrThawSublimated is returned when Thaw is attempted on a Sublimated
// value, which is a one-way terminal state (spec.md Glossary).
var ErrThawSublimated = errors.New("value: sublimated values cannot be thawed")

// Thaw produces a deep clone of v with Phase = Fluid throughout
// (spec.md §4.1). It errors if any reachable value is Sublimated.
func Thaw(v Value, intern Interner) (Value, error) {
	if hasSublimated(v, make(map[interface{}]bool)) {
		return Value{}, ErrThawSublimated
	}
	out := DeepClone(v, intern)
	setFluid(&out)
	return out, nil
}

func hasSublimated(v Value, visiting map[interface{}]bool) bool {
	if v.Phase == Sublimated {
		return true
	}
	switch v.Kind {
	case KindArray:
		for _, e := range ArrayOf(v).Elems {
			if hasSublimated(e, visiting) {
				return true
			}
		}
	case KindTuple:
		for _, e := range TupleOf(v).Elems {
			if hasSublimated(e, visiting) {
				return true
			}
		}
	case KindMap:
		for _, e := range MapOf(v).Entries() {
			if hasSublimated(e.Val, visiting) {
				return true
			}
		}
	case KindStruct:
		for _, f := range StructOf(v).FieldValues {
			if hasSublimated(f, visiting) {
				return true
			}
		}
	case KindRef:
		r := RefOf(v)
		if visiting[r] {
			return false
		}
		visiting[r] = true
		return hasSublimated(r.Inner, visiting)
	}
	return false
}

func setFluid(v *Value) {
	v.Phase = Fluid
	switch v.Kind {
	case KindArray:
		a := ArrayOf(*v)
		for i := range a.Elems {
			setFluid(&a.Elems[i])
		}
	case KindTuple:
		t := TupleOf(*v)
		for i := range t.Elems {
			setFluid(&t.Elems[i])
		}
	case KindMap:
		for _, e := range MapOf(*v).Entries() {
			setFluid(&e.Val)
		}
	case KindStruct:
		s := StructOf(*v)
		for i := range s.FieldValues {
			setFluid(&s.FieldValues[i])
		}
	case KindRef:
		setFluid(&RefOf(*v).Inner)
	}
}

// Sublimate converts v to Phase = Sublimated in a single step (no
// recursion into substructure — it is a terminal marker on the value
// itself, not a cascading freeze).
func Sublimate(v *Value) {
	v.Phase = Sublimated
}

// CheckMutable returns a *PhaseError if v's phase rejects mutation.
func CheckMutable(v Value, op string) error {
	if v.Phase == Crystal || v.Phase == Sublimated {
		return &PhaseError{Op: op, Kind: v.Kind}
	}
	return nil
}

// PhaseError is returned when a mutating built-in targets a
// crystal/sublimated value.
type PhaseError struct {
	Op   string
	Kind Kind
}

func (e *PhaseError) Error() string {
	return "cannot " + e.Op + " on crystal " + kindLower(e.Kind)
}

func kindLower(k Kind) string {
	switch k {
	case KindMap:
		return "map"
	case KindArray:
		return "array"
	case KindSet:
		return "set"
	case KindStruct:
		return "struct"
	case KindBuffer:
		return "buffer"
	case KindRef:
		return "ref"
	case KindString:
		return "string"
	default:
		return k.String()
	}
}
