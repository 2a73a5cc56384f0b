package vm

import "github.com/ajokela/lattice-sub005/lang/value"

func (vm *VM) doBuildArray(n int) {
	v := value.Array(vm.popN(n))
	vm.push(v)
	vm.trackIfComposite(v)
}

func (vm *VM) doBuildTuple(n int) {
	v := value.Tuple(vm.popN(n))
	vm.push(v)
	vm.trackIfComposite(v)
}

func (vm *VM) doBuildMap(pairCount int) {
	flat := vm.popN(2 * pairCount)
	pairs := make([]value.MapEntry, pairCount)
	for i := 0; i < pairCount; i++ {
		pairs[i] = value.MapEntry{Key: flat[2*i], Val: flat[2*i+1]}
	}
	v := value.Map(pairs)
	vm.push(v)
	vm.trackIfComposite(v)
}

func (vm *VM) doBuildSet(n int) {
	v := value.Set(vm.popN(n))
	vm.push(v)
	vm.trackIfComposite(v)
}

// doBuildStruct builds a struct from the template in Constants[constIdx]
// (a Struct value whose Name/FieldNames are set and FieldValues is
// empty) plus n field values already on the stack, in declaration order.
func (vm *VM) doBuildStruct(constIdx, n int) error {
	proto := vm.frame().Chunk.Constants[constIdx]
	sd := value.StructOf(proto)
	if sd == nil {
		return &TypeMismatch{Op: "build struct", Expected: "Struct template constant", Got: proto.Kind}
	}
	vals := vm.popN(n)
	names := append([]string(nil), sd.FieldNames...)
	v := value.Struct(sd.Name, names, vals)
	vm.push(v)
	vm.trackIfComposite(v)
	return nil
}

// doBuildEnum builds an enum from the template in Constants[constIdx]
// (an Enum value with EnumName/VariantName/VariantTag set and an empty
// Payload) plus n payload values already on the stack.
func (vm *VM) doBuildEnum(constIdx, n int) error {
	proto := vm.frame().Chunk.Constants[constIdx]
	ed := value.EnumOf(proto)
	if ed == nil {
		return &TypeMismatch{Op: "build enum", Expected: "Enum template constant", Got: proto.Kind}
	}
	payload := vm.popN(n)
	v := value.Enum(ed.EnumName, ed.VariantName, ed.VariantTag, payload)
	vm.push(v)
	vm.trackIfComposite(v)
	return nil
}

func (vm *VM) doBuildRange(inclusive bool) error {
	end := vm.pop()
	start := vm.pop()
	if start.Kind != value.KindInt || end.Kind != value.KindInt {
		return &TypeMismatch{Op: "build range", Expected: "Int", Got: start.Kind}
	}
	vm.push(value.Range(start.Int(), end.Int(), inclusive))
	return nil
}

func (vm *VM) doArrayFlatten() error {
	v := vm.pop()
	ad := value.ArrayOf(v)
	if ad == nil {
		return &TypeMismatch{Op: "flatten", Expected: "Array", Got: v.Kind}
	}
	var out []value.Value
	for _, e := range ad.Elems {
		inner := value.ArrayOf(e)
		if inner == nil {
			return &TypeMismatch{Op: "flatten", Expected: "Array of Array", Got: e.Kind}
		}
		out = append(out, inner.Elems...)
	}
	v := value.Array(out)
	vm.push(v)
	vm.trackIfComposite(v)
	return nil
}

// doIterInit pushes an opaque iterator state: a Ref over a Tuple of
// (nextIndex, iterable).
func (vm *VM) doIterInit() {
	iterable := vm.pop()
	state := value.Tuple([]value.Value{value.Int(0), iterable})
	ref := value.Ref(state)
	vm.push(ref)
	vm.trackIfComposite(ref)
}

// doIterNext advances the iterator on top of stack. If exhausted it
// pops the iterator and returns true so the dispatch loop can apply
// the skip-jump; otherwise it pushes the next element and returns
// false.
func (vm *VM) doIterNext() (bool, error) {
	it := vm.peek(0)
	rd := value.RefOf(it)
	if rd == nil {
		return false, &TypeMismatch{Op: "iter_next", Expected: "iterator", Got: it.Kind}
	}
	state := value.TupleOf(rd.Inner)
	idx := state.Elems[0].Int()
	iterable := state.Elems[1]
	length, err := iterLen(iterable)
	if err != nil {
		return false, err
	}
	if idx >= length {
		vm.pop()
		return true, nil
	}
	elem, err := iterElemAt(iterable, idx)
	if err != nil {
		return false, err
	}
	state.Elems[0] = value.Int(idx + 1)
	vm.push(elem)
	return false, nil
}

func iterLen(v value.Value) (int64, error) {
	switch v.Kind {
	case value.KindArray:
		return int64(len(value.ArrayOf(v).Elems)), nil
	case value.KindTuple:
		return int64(len(value.TupleOf(v).Elems)), nil
	case value.KindString:
		return int64(len(v.Str())), nil
	case value.KindRange:
		return value.RangeOf(v).Len(), nil
	case value.KindMap:
		return int64(value.MapOf(v).Len()), nil
	case value.KindSet:
		return int64(value.SetOf(v).Len()), nil
	default:
		return 0, &TypeMismatch{Op: "iterate", Expected: "an iterable", Got: v.Kind}
	}
}

func iterElemAt(v value.Value, idx int64) (value.Value, error) {
	switch v.Kind {
	case value.KindArray:
		return value.ArrayOf(v).Elems[idx], nil
	case value.KindTuple:
		return value.TupleOf(v).Elems[idx], nil
	case value.KindString:
		return value.String(string(v.Str()[idx])), nil
	case value.KindRange:
		r := value.RangeOf(v)
		return value.Int(r.Start + idx), nil
	case value.KindMap:
		e := value.MapOf(v).Entries()[idx]
		return value.Tuple([]value.Value{e.Key, e.Val}), nil
	case value.KindSet:
		return value.SetOf(v).Items()[idx], nil
	default:
		return value.Value{}, &TypeMismatch{Op: "iterate", Expected: "an iterable", Got: v.Kind}
	}
}
