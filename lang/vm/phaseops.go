package vm

import "github.com/ajokela/lattice-sub005/lang/value"

// The *_VAR phase opcodes and the reactive opcodes (spec.md §4.8, §9)
// name a variable rather than a stack slot. This VM's locals are
// addressed by stack slot, not by name, so these opcodes only ever
// resolve against the global environment — the one place Lattice
// variables are still name-addressable at runtime. A compiler that
// wants phase/reactive operations on a local would need to promote
// that local to a (module-scoped) global first; documented as a
// deliberate simplification rather than the full named-local model.

func (vm *VM) doFreeze() error {
	v := vm.pop()
	if err := value.Freeze(&v); err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) doThaw() error {
	v := vm.pop()
	out, err := value.Thaw(v, vm.intern)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func (vm *VM) doClone() error {
	v := vm.pop()
	vm.push(value.FastClone(v, vm.intern))
	return nil
}

func (vm *VM) doMarkFluid() error {
	v := vm.pop()
	v.Phase = value.Fluid
	vm.push(v)
	return nil
}

func (vm *VM) doSublimate() error {
	v := vm.pop()
	value.Sublimate(&v)
	vm.push(v)
	return nil
}

// doFreezeVar freezes the named global in place, honoring its seed
// contract (if any) and cascading the freeze to every bonded target
// (spec.md §9).
func (vm *VM) doFreezeVar(name string) error {
	v, ok := vm.globals.Get(name, 0)
	if !ok {
		suggestion, _ := vm.globals.FindSimilarName(name)
		return &UndefinedVariable{Name: name, Suggestion: suggestion}
	}
	if err := vm.reactive.CheckSeed(name, v); err != nil {
		return err
	}
	old := v.Phase
	if err := value.Freeze(&v); err != nil {
		return err
	}
	vm.globals.Set(name, v)
	vm.reactive.Notify(name, old, v.Phase, v)
	for _, target := range vm.reactive.Targets(name) {
		if err := vm.doFreezeVar(target); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) doThawVar(name string) error {
	v, ok := vm.globals.Get(name, 0)
	if !ok {
		suggestion, _ := vm.globals.FindSimilarName(name)
		return &UndefinedVariable{Name: name, Suggestion: suggestion}
	}
	old := v.Phase
	out, err := value.Thaw(v, vm.intern)
	if err != nil {
		return err
	}
	vm.globals.Set(name, out)
	vm.reactive.Notify(name, old, out.Phase, out)
	return nil
}

func (vm *VM) doSublimateVar(name string) error {
	v, ok := vm.globals.Get(name, 0)
	if !ok {
		suggestion, _ := vm.globals.FindSimilarName(name)
		return &UndefinedVariable{Name: name, Suggestion: suggestion}
	}
	old := v.Phase
	value.Sublimate(&v)
	vm.globals.Set(name, v)
	vm.reactive.Notify(name, old, v.Phase, v)
	return nil
}

// doFreezeExcept freezes a struct/map's reachable values except the
// single field/key named by except.
func (vm *VM) doFreezeExcept(except string) error {
	v := vm.pop()
	switch v.Kind {
	case value.KindStruct:
		sd := value.StructOf(v)
		for i, n := range sd.FieldNames {
			if n == except {
				continue
			}
			if err := value.Freeze(&sd.FieldValues[i]); err != nil {
				return err
			}
		}
	case value.KindMap:
		for _, e := range value.MapOf(v).Entries() {
			if value.Repr(e.Key) == except {
				continue
			}
			if err := value.Freeze(&e.Val); err != nil {
				return err
			}
			e.Frozen = true
		}
	default:
		return &TypeMismatch{Op: "freeze_except", Expected: "Struct or Map", Got: v.Kind}
	}
	vm.push(v)
	return nil
}

// doFreezeField freezes a single struct field in place.
func (vm *VM) doFreezeField(field string) error {
	v := vm.pop()
	sd := value.StructOf(v)
	if sd == nil {
		return &TypeMismatch{Op: "freeze_field", Expected: "Struct", Got: v.Kind}
	}
	idx := -1
	for i, n := range sd.FieldNames {
		if n == field {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &MissingField{Struct: sd.Name, Field: field}
	}
	if err := value.Freeze(&sd.FieldValues[idx]); err != nil {
		return err
	}
	if sd.FrozenFields == nil {
		sd.FrozenFields = make(map[string]bool)
	}
	sd.FrozenFields[field] = true
	vm.push(v)
	return nil
}

func (vm *VM) doIsCrystal() error {
	v := vm.pop()
	vm.push(value.Bool(v.Phase == value.Crystal || v.Phase == value.Sublimated))
	return nil
}

func (vm *VM) doIsFluid() error {
	v := vm.pop()
	vm.push(value.Bool(v.Phase.Mutable()))
	return nil
}

// doReact registers the closure on top of stack as a reaction callback
// for the named global.
func (vm *VM) doReact(name string) error {
	closure := vm.pop()
	vm.reactive.React(name, func(old, newP value.Phase, current value.Value) {
		_, _ = vm.callValue(closure, []value.Value{
			value.Int(int64(old)), value.Int(int64(newP)), current,
		})
	})
	return nil
}

func (vm *VM) doUnreact(name string) error {
	vm.reactive.Unreact(name)
	return nil
}

// doBond/doUnbond take their two variable names off the stack (rather
// than out of the instruction's operand fields) since a single 16-bit
// immediate cannot address two separate constant-pool names; the
// compiler pushes dependency then target before emitting BOND/UNBOND.
func (vm *VM) doBond() error {
	target := vm.pop()
	dependency := vm.pop()
	if dependency.Kind != value.KindString || target.Kind != value.KindString {
		return &TypeMismatch{Op: "bond", Expected: "String", Got: dependency.Kind}
	}
	vm.reactive.Bond(dependency.Str(), target.Str())
	return nil
}

func (vm *VM) doUnbond() error {
	target := vm.pop()
	dependency := vm.pop()
	if dependency.Kind != value.KindString || target.Kind != value.KindString {
		return &TypeMismatch{Op: "unbond", Expected: "String", Got: dependency.Kind}
	}
	vm.reactive.Unbond(dependency.Str(), target.Str())
	return nil
}

// doSeed registers the closure on top of stack as name's freeze-time
// validation contract: it is called with the candidate value and must
// return a truthy result, or freezing name fails with SeedFailed.
func (vm *VM) doSeed(name string) error {
	closure := vm.pop()
	vm.reactive.Seed(name, func(v value.Value) error {
		result, err := vm.callValue(closure, []value.Value{v})
		if err != nil {
			return err
		}
		if !result.Truthy() {
			return errSeedRejected
		}
		return nil
	})
	return nil
}

func (vm *VM) doUnseed(name string) error {
	vm.reactive.Unseed(name)
	return nil
}

var errSeedRejected = seedRejectedError{}

type seedRejectedError struct{}

func (seedRejectedError) Error() string { return "value rejected by seed contract" }
