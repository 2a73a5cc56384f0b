package value

// FastClone and DeepClone both perform the same structural copy but
// differ in where the copied payload lives, mirroring the teacher's
// own (single-tier) allocator reuse and the kaptinlin-deepclone
// copy-vs-clone field split generalized to our fixed Kind set:
// primitives always copy-by-value, short strings intern instead of
// allocating, and composite kinds recurse. Both allocate fresh
// backing storage for every composite payload; FastClone's only
// shortcut is interning short strings, while DeepClone never interns
// and always allocates, as required when a closure captures its
// environment (spec.md §4.1).
type Interner interface {
	Intern(s string) *string
}

// FastClone produces a shallow-by-structure copy: primitives copy by
// value, short strings are interned via intern (bypassing allocation),
// and composites recurse through FastClone.
func FastClone(v Value, intern Interner) Value {
	return cloneWith(v, intern, false, make(map[interface{}]bool))
}

// DeepClone always allocates fresh storage for composite payloads, used
// for closure-environment capture (spec.md §4.1).
func DeepClone(v Value, intern Interner) Value {
	return cloneWith(v, intern, true, make(map[interface{}]bool))
}

func cloneWith(v Value, intern Interner, deep bool, visiting map[interface{}]bool) Value {
	switch v.Kind {
	case KindInt, KindFloat, KindBool, KindNil, KindUnit, KindRange:
		return v // primitives / immutable-by-construction: copy by value
	case KindString:
		s := v.Str()
		if !deep && intern != nil && len(s) <= InternThreshold {
			return InternedString(intern.Intern(s))
		}
		dup := s
		return Value{Kind: KindString, Phase: Fluid, s: &dup}
	case KindArray:
		if visiting[v.ref] {
			return v // cycle guard; see freeze.go for the strict version
		}
		visiting[v.ref] = true
		src := ArrayOf(v).Elems
		out := make([]Value, len(src))
		for i, e := range src {
			out[i] = cloneWith(e, intern, deep, visiting)
		}
		delete(visiting, v.ref)
		return Array(out)
	case KindTuple:
		src := TupleOf(v).Elems
		out := make([]Value, len(src))
		for i, e := range src {
			out[i] = cloneWith(e, intern, deep, visiting)
		}
		return Tuple(out)
	case KindMap:
		if visiting[v.ref] {
			return v
		}
		visiting[v.ref] = true
		m := NewMapData()
		for _, e := range MapOf(v).Entries() {
			m.Set(cloneWith(e.Key, intern, deep, visiting), cloneWith(e.Val, intern, deep, visiting))
		}
		delete(visiting, v.ref)
		return fromRef(KindMap, Fluid, m)
	case KindSet:
		s := NewSetData()
		for _, it := range SetOf(v).Items() {
			s.Add(cloneWith(it, intern, deep, visiting))
		}
		return fromRef(KindSet, Fluid, s)
	case KindStruct:
		if visiting[v.ref] {
			return v
		}
		visiting[v.ref] = true
		src := StructOf(v)
		names := append([]string(nil), src.FieldNames...)
		vals := make([]Value, len(src.FieldValues))
		for i, f := range src.FieldValues {
			vals[i] = cloneWith(f, intern, deep, visiting)
		}
		delete(visiting, v.ref)
		return Struct(src.Name, names, vals)
	case KindEnum:
		src := EnumOf(v)
		payload := make([]Value, len(src.Payload))
		for i, p := range src.Payload {
			payload[i] = cloneWith(p, intern, deep, visiting)
		}
		return Enum(src.EnumName, src.VariantName, src.VariantTag, payload)
	case KindBuffer:
		src := BufferOf(v).Data
		dup := append([]byte(nil), src...)
		return Buffer(dup)
	case KindRef:
		inner := cloneWith(RefOf(v).Inner, intern, deep, visiting)
		return Ref(inner)
	case KindClosure, KindChannel:
		return v // pointer/handle identity is the value; never cloned
	default:
		return v
	}
}

// InternThreshold is the maximum string length (in bytes) eligible for
// interning (spec.md §4.2 / §9 Open Question 1).
const InternThreshold = 64
