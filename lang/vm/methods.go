package vm

import (
	"github.com/ajokela/lattice-sub005/lang/builtin"
	"github.com/ajokela/lattice-sub005/lang/pic"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// doIndex implements OP_INDEX: pop index, receiver, push receiver[index].
// Negative Int indices count from the end, the common ergonomic
// convenience in dynamically-typed scripting languages.
func (vm *VM) doIndex() error {
	idx := vm.pop()
	recv := vm.pop()
	switch recv.Kind {
	case value.KindArray:
		elems := value.ArrayOf(recv).Elems
		i, err := normalizeIndex(idx, int64(len(elems)), "array")
		if err != nil {
			return err
		}
		vm.push(elems[i])
	case value.KindTuple:
		elems := value.TupleOf(recv).Elems
		i, err := normalizeIndex(idx, int64(len(elems)), "tuple")
		if err != nil {
			return err
		}
		vm.push(elems[i])
	case value.KindString:
		s := recv.Str()
		i, err := normalizeIndex(idx, int64(len(s)), "string")
		if err != nil {
			return err
		}
		vm.push(value.String(string(s[i])))
	case value.KindBuffer:
		data := value.BufferOf(recv).Data
		i, err := normalizeIndex(idx, int64(len(data)), "buffer")
		if err != nil {
			return err
		}
		vm.push(value.Int(int64(data[i])))
	case value.KindMap:
		v, ok := value.MapOf(recv).Get(idx)
		if !ok {
			vm.push(value.Nil)
			return nil
		}
		vm.push(v)
	default:
		return &TypeMismatch{Op: "index", Expected: "Array, Tuple, String, Buffer, or Map", Got: recv.Kind}
	}
	return nil
}

func normalizeIndex(idx value.Value, length int64, kind string) (int64, error) {
	if idx.Kind != value.KindInt {
		return 0, &TypeMismatch{Op: "index", Expected: "Int", Got: idx.Kind}
	}
	i := idx.Int()
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, &IndexOutOfBounds{Kind: kind, Index: idx.Int()}
	}
	return i, nil
}

// doSetIndex implements OP_SET_INDEX: pop value, index, receiver; store
// receiver[index] = value.
func (vm *VM) doSetIndex() error {
	val := vm.pop()
	idx := vm.pop()
	recv := vm.pop()
	return vm.setIndexOn(recv, idx, val)
}

// doSetIndexLocal implements OP_SET_INDEX_LOCAL: pop value, index;
// mutate local slot a's indexable in place without pushing/popping it.
func (vm *VM) doSetIndexLocal(a byte) error {
	val := vm.pop()
	idx := vm.pop()
	slot := vm.frame().SlotsBase + int(a)
	return vm.setIndexOn(vm.stack[slot], idx, val)
}

func (vm *VM) setIndexOn(recv, idx, val value.Value) error {
	if err := value.CheckMutable(recv, "set index"); err != nil {
		return err
	}
	switch recv.Kind {
	case value.KindArray:
		elems := value.ArrayOf(recv).Elems
		i, err := normalizeIndex(idx, int64(len(elems)), "array")
		if err != nil {
			return err
		}
		elems[i] = val
	case value.KindBuffer:
		if val.Kind != value.KindInt {
			return &TypeMismatch{Op: "set index", Expected: "Int", Got: val.Kind}
		}
		data := value.BufferOf(recv).Data
		i, err := normalizeIndex(idx, int64(len(data)), "buffer")
		if err != nil {
			return err
		}
		data[i] = byte(val.Int())
	case value.KindMap:
		m := value.MapOf(recv)
		if e := m.Entry(idx); e != nil && e.Frozen {
			return &value.PhaseError{Op: "set index", Kind: value.KindMap}
		}
		m.Set(idx, val)
	default:
		return &TypeMismatch{Op: "set index", Expected: "Array, Buffer, or Map", Got: recv.Kind}
	}
	return nil
}

// doGetField implements OP_GET_FIELD.
func (vm *VM) doGetField(name string) error {
	recv := vm.pop()
	sd := value.StructOf(recv)
	if sd == nil {
		return &TypeMismatch{Op: "get field", Expected: "Struct", Got: recv.Kind}
	}
	v, ok := sd.Field(name)
	if !ok {
		return &MissingField{Struct: sd.Name, Field: name}
	}
	vm.push(v)
	return nil
}

// doSetField implements OP_SET_FIELD.
func (vm *VM) doSetField(name string) error {
	val := vm.pop()
	recv := vm.pop()
	if err := value.CheckMutable(recv, "set field"); err != nil {
		return err
	}
	sd := value.StructOf(recv)
	if sd == nil {
		return &TypeMismatch{Op: "set field", Expected: "Struct", Got: recv.Kind}
	}
	if sd.FieldFrozen(name) {
		return &value.PhaseError{Op: "set field", Kind: recv.Kind}
	}
	if !sd.SetField(name, val) {
		return &MissingField{Struct: sd.Name, Field: name}
	}
	return nil
}

// doInvoke implements OP_INVOKE (spec.md §4.9's dispatch order), using
// the call site's PIC slot to cache a negative (not-a-builtin)
// resolution across calls.
func (vm *VM) doInvoke(offset int, argCount int, name string) error {
	args := vm.popN(argCount)
	receiver := vm.pop()

	slot := vm.frame().Chunk.PICSlotAt(offset)
	methodHash := pic.Hash(name)

	if id, ok := pic.Lookup(slot, receiver.Kind, methodHash); !ok || id != pic.NotBuiltin {
		result, found, err := builtin.Call(receiver, name, args, vm.builtinInvoke)
		if err != nil {
			return err
		}
		if found {
			if id, ok := builtin.Resolve(receiver.Kind, name); ok {
				pic.Populate(slot, receiver.Kind, methodHash, id)
			}
			vm.push(result)
			vm.trackIfComposite(result)
			return nil
		}
		pic.Populate(slot, receiver.Kind, methodHash, pic.NotBuiltin)
	}

	if v, ok := vm.callableField(receiver, name); ok {
		return vm.callAndPush(v, args)
	}

	globalName := receiver.Kind.String() + "::" + name
	if fv, ok := vm.lookupMethodGlobal(globalName); ok {
		return vm.callAndPush(fv, args)
	}

	suggestion, _ := builtin.FindSimilarMethod(receiver.Kind, name)
	return &MethodNotFound{Kind: receiver.Kind, Method: name, Suggestion: suggestion}
}

// lookupMethodGlobal resolves a "TypeName::method" global, dispatch
// step 4 (spec.md §4.9), through methodCache before falling back to a
// scope walk: unlike the per-call-site PIC, this name is shared by
// every call site that invokes the same method on the same type, so an
// LRU keyed by the full qualified name is the cache that actually pays
// for itself here.
func (vm *VM) lookupMethodGlobal(globalName string) (value.Value, bool) {
	if cached, ok := vm.methodCache.Get(globalName); ok {
		return cached.(value.Value), true
	}
	fv, ok := vm.globals.Get(globalName, 0)
	if !ok || fv.Kind != value.KindClosure {
		return value.Value{}, false
	}
	vm.methodCache.Add(globalName, fv)
	return fv, true
}

// callableField implements dispatch step 3 (spec.md §4.9): a
// Struct field or Map entry that happens to hold a Closure is callable
// as a method.
func (vm *VM) callableField(receiver value.Value, name string) (value.Value, bool) {
	switch receiver.Kind {
	case value.KindStruct:
		if v, ok := value.StructOf(receiver).Field(name); ok && v.Kind == value.KindClosure {
			return v, true
		}
	case value.KindMap:
		if v, ok := value.MapOf(receiver).Get(value.String(name)); ok && v.Kind == value.KindClosure {
			return v, true
		}
	}
	return value.Value{}, false
}

func (vm *VM) callAndPush(closure value.Value, args []value.Value) error {
	result, err := vm.callValue(closure, args)
	if err != nil {
		return err
	}
	vm.push(result)
	vm.trackIfComposite(result)
	return nil
}

// doInvokeGlobal implements OP_INVOKE_GLOBAL / OP_INVOKE_GLOBAL_16: a
// direct TypeName::method global lookup that bypasses the built-in
// table entirely (spec.md §4.7's "bypassing method-table lookup").
// name already carries the "TypeName::method" form; the receiver
// travels as the first positional argument.
func (vm *VM) doInvokeGlobal(argCount int, name string) error {
	args := vm.popN(argCount)
	fv, ok := vm.globals.Get(name, 0)
	if !ok {
		suggestion, _ := vm.globals.FindSimilarName(name)
		return &UndefinedVariable{Name: name, Suggestion: suggestion}
	}
	return vm.callAndPush(fv, args)
}
