package vm

import (
	"fmt"

	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/intern"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// step executes exactly one instruction of the currently topmost
// frame. It returns (result, true, nil) once the whole program has
// finished (the outermost frame returned, or OpHalt ran), or
// (_, false, err) when the instruction raised an error the caller
// should route through unwindToHandler.
func (vm *VM) step() (value.Value, bool, error) {
	f := vm.frame()
	code := f.Chunk.Code
	if f.IP+4 > len(code) {
		return value.Unit, true, nil
	}

	op := chunk.Opcode(code[f.IP])
	a, b, c := code[f.IP+1], code[f.IP+2], code[f.IP+3]
	offset := f.IP
	f.IP += 4
	imm := uint16(b)<<8 | uint16(c)

	if vm.gasLimit > 0 {
		vm.gasUsed++
		if vm.gasUsed > vm.gasLimit {
			return value.Value{}, false, ErrOutOfGas
		}
	}

	var err error
	switch op {

	// ---- Stack manipulation ------------------------------------------------
	case chunk.OpConstant:
		vm.push(vm.loadConstant(f.Chunk.Constants[a]))
	case chunk.OpConstant16:
		vm.push(vm.loadConstant(f.Chunk.Constants[imm]))
	case chunk.OpNil:
		vm.push(value.Nil)
	case chunk.OpTrue:
		vm.push(value.Bool(true))
	case chunk.OpFalse:
		vm.push(value.Bool(false))
	case chunk.OpUnit:
		vm.push(value.Unit)
	case chunk.OpPop:
		vm.pop()
	case chunk.OpDup:
		vm.push(vm.peek(0))
	case chunk.OpSwap:
		n := len(vm.stack)
		vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]
	case chunk.OpLoadInt8:
		vm.push(value.Int(int64(int8(a))))

	// ---- Arithmetic ----------------------------------------------------------
	case chunk.OpAdd:
		err = vm.doAdd()
	case chunk.OpSub:
		err = vm.doSub()
	case chunk.OpMul:
		err = vm.doMul()
	case chunk.OpDiv:
		err = vm.doDiv()
	case chunk.OpMod:
		err = vm.doMod()
	case chunk.OpNeg:
		err = vm.doNeg()
	case chunk.OpAddInt:
		err = vm.doAddInt()
	case chunk.OpSubInt:
		err = vm.doSubInt()
	case chunk.OpMulInt:
		err = vm.doMulInt()
	case chunk.OpLtInt:
		err = vm.doLtInt()
	case chunk.OpLteqInt:
		err = vm.doLteqInt()

	// ---- Bitwise ---------------------------------------------------------
	case chunk.OpAnd:
		err = vm.doBitwise("and", func(a, b int64) int64 { return a & b })
	case chunk.OpOr:
		err = vm.doBitwise("or", func(a, b int64) int64 { return a | b })
	case chunk.OpXor:
		err = vm.doBitwise("xor", func(a, b int64) int64 { return a ^ b })
	case chunk.OpNot:
		err = vm.doNot()
	case chunk.OpLshift:
		err = vm.doShift("lshift", func(a int64, n uint) int64 { return a << n })
	case chunk.OpRshift:
		err = vm.doShift("rshift", func(a int64, n uint) int64 { return a >> n })
	case chunk.OpConcat:
		err = vm.doConcat()

	// ---- Comparison --------------------------------------------------------
	case chunk.OpEq:
		bv, av := vm.pop(), vm.pop()
		vm.push(value.Bool(value.Equal(av, bv)))
	case chunk.OpNeq:
		bv, av := vm.pop(), vm.pop()
		vm.push(value.Bool(!value.Equal(av, bv)))
	case chunk.OpLt, chunk.OpGt, chunk.OpLteq, chunk.OpGteq:
		bv, av := vm.pop(), vm.pop()
		var order int
		order, err = compareOrder(av, bv)
		if err == nil {
			switch op {
			case chunk.OpLt:
				vm.push(value.Bool(order < 0))
			case chunk.OpGt:
				vm.push(value.Bool(order > 0))
			case chunk.OpLteq:
				vm.push(value.Bool(order <= 0))
			case chunk.OpGteq:
				vm.push(value.Bool(order >= 0))
			}
		}

	// ---- Variable access ---------------------------------------------------
	case chunk.OpGetLocal:
		vm.push(vm.stack[f.SlotsBase+int(a)])
	case chunk.OpGetLocal16:
		vm.push(vm.stack[f.SlotsBase+int(imm)])
	case chunk.OpSetLocal:
		vm.stack[f.SlotsBase+int(a)] = vm.peek(0)
	case chunk.OpSetLocal16:
		vm.stack[f.SlotsBase+int(imm)] = vm.peek(0)
	case chunk.OpDefineLocal, chunk.OpDefineLocal16:
		// Locals already live on the stack at the slot the compiler
		// reserved for them; nothing to do beyond leaving the
		// initializer value in place.
	case chunk.OpGetGlobal, chunk.OpGetGlobal16:
		name := f.Chunk.Constants[imm].Str()
		var v value.Value
		var ok bool
		v, ok = vm.globals.Get(name, f.Chunk.ConstHashes[imm])
		if !ok {
			suggestion, _ := vm.globals.FindSimilarName(name)
			err = &UndefinedVariable{Name: name, Suggestion: suggestion}
		} else {
			vm.push(v)
		}
	case chunk.OpSetGlobal, chunk.OpSetGlobal16:
		name := f.Chunk.Constants[imm].Str()
		if !vm.globals.Set(name, vm.peek(0)) {
			suggestion, _ := vm.globals.FindSimilarName(name)
			err = &UndefinedVariable{Name: name, Suggestion: suggestion}
		}
	case chunk.OpDefineGlobal, chunk.OpDefineGlobal16:
		name := f.Chunk.Constants[imm].Str()
		vm.globals.Define(name, vm.pop())
	case chunk.OpGetUpvalue:
		vm.push(f.Upvalues[a].Get())
	case chunk.OpSetUpvalue:
		f.Upvalues[a].Set(vm.peek(0))
	case chunk.OpCloseUpvalue:
		slot := len(vm.stack) - 1
		if uv, ok := vm.openUpvalues[slot]; ok {
			uv.Close()
			delete(vm.openUpvalues, slot)
		}
		vm.pop()
	case chunk.OpIncLocal:
		slot := f.SlotsBase + int(a)
		if vm.stack[slot].Kind != value.KindInt {
			err = &TypeMismatch{Op: "inc_local", Expected: "Int", Got: vm.stack[slot].Kind}
		} else {
			vm.stack[slot] = value.Int(vm.stack[slot].Int() + 1)
		}
	case chunk.OpDecLocal:
		slot := f.SlotsBase + int(a)
		if vm.stack[slot].Kind != value.KindInt {
			err = &TypeMismatch{Op: "dec_local", Expected: "Int", Got: vm.stack[slot].Kind}
		} else {
			vm.stack[slot] = value.Int(vm.stack[slot].Int() - 1)
		}
	case chunk.OpSetLocalPop:
		vm.stack[f.SlotsBase+int(a)] = vm.pop()

	// ---- Control flow -------------------------------------------------------
	case chunk.OpJump:
		f.IP = int(imm)
	case chunk.OpJumpIfFalse:
		if !vm.pop().Truthy() {
			f.IP = int(imm)
		}
	case chunk.OpJumpIfTrue:
		if vm.pop().Truthy() {
			f.IP = int(imm)
		}
	case chunk.OpJumpIfNotNil:
		if vm.peek(0).Kind != value.KindNil {
			f.IP = int(imm)
		}
	case chunk.OpLoop:
		f.IP -= int(imm)
	case chunk.OpCall:
		err = vm.invokeClosure(int(a))
	case chunk.OpClosure, chunk.OpClosure16:
		err = vm.doClosure(int(imm))
	case chunk.OpReturn:
		result, done := vm.doReturn()
		if done {
			return result, true, nil
		}
		return value.Value{}, false, nil

	// ---- Iteration -----------------------------------------------------------
	case chunk.OpIterInit:
		vm.doIterInit()
	case chunk.OpIterNext:
		var exhausted bool
		exhausted, err = vm.doIterNext()
		if err == nil && exhausted {
			f.IP += int(imm)
		}

	// ---- Construction -------------------------------------------------------
	case chunk.OpBuildArray:
		vm.doBuildArray(int(imm))
	case chunk.OpBuildMap:
		vm.doBuildMap(int(imm))
	case chunk.OpBuildTuple:
		vm.doBuildTuple(int(imm))
	case chunk.OpBuildStruct:
		err = vm.doBuildStruct(int(a), int(imm))
	case chunk.OpBuildRange:
		err = vm.doBuildRange(a != 0)
	case chunk.OpBuildEnum:
		err = vm.doBuildEnum(int(a), int(imm))
	case chunk.OpArrayFlatten:
		err = vm.doArrayFlatten()

	// ---- Indexing -----------------------------------------------------------
	case chunk.OpIndex:
		err = vm.doIndex()
	case chunk.OpSetIndex:
		err = vm.doSetIndex()
	case chunk.OpSetIndexLocal:
		err = vm.doSetIndexLocal(a)
	case chunk.OpGetField:
		err = vm.doGetField(f.Chunk.Constants[imm].Str())
	case chunk.OpSetField:
		err = vm.doSetField(f.Chunk.Constants[imm].Str())

	// ---- Method invocation --------------------------------------------------
	case chunk.OpInvoke:
		err = vm.doInvoke(offset, int(a), f.Chunk.Constants[imm].Str())
	case chunk.OpInvokeLocal, chunk.OpInvokeLocal16:
		err = vm.doInvoke(offset, int(a), f.Chunk.Constants[imm].Str())
	case chunk.OpInvokeGlobal, chunk.OpInvokeGlobal16:
		err = vm.doInvokeGlobal(int(a), f.Chunk.Constants[imm].Str())

	// ---- Exceptions ----------------------------------------------------------
	case chunk.OpPushExceptionHandler:
		vm.opPushExceptionHandler(int(imm))
	case chunk.OpPopExceptionHandler:
		vm.opPopExceptionHandler()
	case chunk.OpThrow:
		return value.Value{}, false, raiseThrow(vm.pop())
	case chunk.OpTryUnwrap:
		err = vm.opTryUnwrap()

	// ---- Defer ---------------------------------------------------------------
	case chunk.OpDeferPush:
		f.IP = vm.opDeferPush(int(a), int(imm))
	case chunk.OpDeferRun:
		err = vm.opDeferRun(int(a))

	// ---- Phase ops -----------------------------------------------------------
	case chunk.OpFreeze:
		err = vm.doFreeze()
	case chunk.OpThaw:
		err = vm.doThaw()
	case chunk.OpClone:
		err = vm.doClone()
	case chunk.OpMarkFluid:
		err = vm.doMarkFluid()
	case chunk.OpFreezeVar:
		err = vm.doFreezeVar(f.Chunk.Constants[imm].Str())
	case chunk.OpThawVar:
		err = vm.doThawVar(f.Chunk.Constants[imm].Str())
	case chunk.OpSublimate:
		err = vm.doSublimate()
	case chunk.OpSublimateVar:
		err = vm.doSublimateVar(f.Chunk.Constants[imm].Str())
	case chunk.OpFreezeExcept:
		err = vm.doFreezeExcept(f.Chunk.Constants[imm].Str())
	case chunk.OpFreezeField:
		err = vm.doFreezeField(f.Chunk.Constants[imm].Str())
	case chunk.OpIsCrystal:
		err = vm.doIsCrystal()
	case chunk.OpIsFluid:
		err = vm.doIsFluid()

	// ---- Reactive system -------------------------------------------------
	case chunk.OpReact:
		err = vm.doReact(f.Chunk.Constants[imm].Str())
	case chunk.OpUnreact:
		err = vm.doUnreact(f.Chunk.Constants[imm].Str())
	case chunk.OpBond:
		err = vm.doBond()
	case chunk.OpUnbond:
		err = vm.doUnbond()
	case chunk.OpSeed:
		err = vm.doSeed(f.Chunk.Constants[imm].Str())
	case chunk.OpUnseed:
		err = vm.doUnseed(f.Chunk.Constants[imm].Str())

	// ---- Type assertions ----------------------------------------------------
	case chunk.OpCheckType:
		want := value.Kind(f.Chunk.Constants[imm].Int())
		if got := vm.peek(0); got.Kind != want {
			err = &InvalidCast{Want: want, Got: got.Kind}
		}
	case chunk.OpCheckReturnType:
		want := value.Kind(a)
		if got := vm.peek(0); got.Kind != want {
			err = &InvalidCast{Want: want, Got: got.Kind}
		}

	// ---- I/O ------------------------------------------------------------
	case chunk.OpPrint:
		v := vm.pop()
		fmt.Fprintln(vm.out, displayString(v))

	// ---- Modules --------------------------------------------------------
	case chunk.OpImport:
		err = vm.doImport(f.Chunk.Constants[imm].Str())

	// ---- Concurrency ------------------------------------------------------
	case chunk.OpScope:
		err = vm.doScope(int(a))
	case chunk.OpSelect:
		err = vm.doSelect(int(a), int(imm))

	// ---- Fast paths --------------------------------------------------------
	case chunk.OpAppendStrLocal:
		slot := f.SlotsBase + int(a)
		v := vm.pop()
		if v.Kind != value.KindString || vm.stack[slot].Kind != value.KindString {
			err = &TypeMismatch{Op: "append_str_local", Expected: "String", Got: v.Kind}
		} else {
			vm.stack[slot] = vm.stringOpResult(vm.stack[slot].Str() + v.Str())
		}

	// ---- Arena --------------------------------------------------------------
	case chunk.OpResetEphemeral:
		vm.promoteEphemeral()
		vm.arena.Reset()

	// ---- Halt --------------------------------------------------------------
	case chunk.OpHalt:
		result := value.Unit
		if len(vm.stack) > 0 {
			result = vm.pop()
		}
		return result, true, nil

	default:
		err = ErrInvalidOpcode
	}

	if err != nil {
		return value.Value{}, false, err
	}
	return value.Value{}, false, nil
}

// displayString renders v for OP_PRINT: a bare String prints without
// quotes, everything else uses its structural Repr.
func displayString(v value.Value) string {
	if v.Kind == value.KindString {
		return v.Str()
	}
	return value.Repr(v)
}

// doClosure implements OP_CLOSURE/OP_CLOSURE_16: builds a fresh Closure
// over the prototype at Constants[constIdx], capturing one upvalue per
// inline (isLocal, index) descriptor byte pair that follows the
// instruction (clox-style).
func (vm *VM) doClosure(constIdx int) error {
	f := vm.frame()
	proto := f.Chunk.Constants[constIdx]
	protoCD := value.ClosureOf(proto)
	if protoCD == nil {
		return &TypeMismatch{Op: "closure", Expected: "Closure prototype constant", Got: proto.Kind}
	}
	upCount := len(protoCD.Upvalues)
	upvalues := make([]*value.Upvalue, upCount)
	for i := 0; i < upCount; i++ {
		isLocal := f.Chunk.Code[f.IP]
		idx := f.Chunk.Code[f.IP+1]
		f.IP += 2
		if isLocal == 1 {
			upvalues[i] = vm.openUpvalueAt(f.SlotsBase + int(idx))
		} else {
			upvalues[i] = f.Upvalues[idx]
		}
	}
	newCD := &value.ClosureData{
		Name:       protoCD.Name,
		Chunk:      protoCD.Chunk,
		Arity:      protoCD.Arity,
		Defaults:   protoCD.Defaults,
		Variadic:   protoCD.Variadic,
		Capture:    value.CaptureUpvalues,
		Upvalues:   upvalues,
		ParamPhase: protoCD.ParamPhase,
	}
	vm.push(value.Closure(newCD))
	return nil
}

// doImport implements OP_IMPORT: resolves and runs a module chunk,
// then pushes a Map of its exported bindings (spec.md §4.8/§6). Module
// top levels execute against this VM's own global namespace — imports
// are expected to only ever add bindings, not shadow existing ones.
func (vm *VM) doImport(name string) error {
	if vm.importChunk == nil {
		return ErrModuleNotConfigured
	}
	modChunk, err := vm.importChunk(name)
	if err != nil {
		return err
	}
	if _, err := vm.runChunkToCompletion(modChunk); err != nil {
		return err
	}
	pairs := make([]value.MapEntry, 0, len(modChunk.Exports))
	for _, ex := range modChunk.Exports {
		if v, ok := vm.globals.Get(ex, 0); ok {
			pairs = append(pairs, value.MapEntry{Key: value.String(ex), Val: v})
		}
	}
	vm.push(value.Map(pairs))
	return nil
}

// runChunkToCompletion runs c as a fresh top-level activation (a
// placeholder Unit plays the "closure" slot 0 role so the return path
// stays uniform with a real call) and returns its final value.
func (vm *VM) runChunkToCompletion(c *chunk.Chunk) (value.Value, error) {
	depthBefore := len(vm.frames)
	vm.push(value.Unit)
	vm.pushFrame(c, len(vm.stack), nil)
	for len(vm.frames) > depthBefore {
		_, done, err := vm.step()
		if err != nil {
			if vm.unwindToHandler(err) {
				continue
			}
			return value.Value{}, err
		}
		if done {
			break
		}
	}
	if len(vm.stack) > 0 {
		return vm.stack[len(vm.stack)-1], nil
	}
	return value.Unit, nil
}

// promoteEphemeral copies every arena-backed String payload reachable
// from the value stack onto the Go heap before OP_RESET_EPHEMERAL
// rewinds the arena (spec.md §4.3). Globals are not swept: the
// compiler is expected to promote an ephemeral value before it ever
// assigns it to a global, so none should be reachable there.
func (vm *VM) promoteEphemeral() {
	for i, v := range vm.stack {
		vm.stack[i] = vm.promoteValue(v)
	}
}

// promoteFrame is promoteEphemeral restricted to f's own stack slots
// (spec.md §4.3: "entering a new non-native frame triggers the same
// promotion walk restricted to the caller frame, to prevent callee
// resets from invalidating caller data").
func (vm *VM) promoteFrame(f *Frame) {
	for i := f.SlotsBase; i < len(vm.stack); i++ {
		vm.stack[i] = vm.promoteValue(vm.stack[i])
	}
}

// promoteValue promotes v to either an interned pointer (short string)
// or a freshly malloc'd copy (long string) if it is Ephemeral;
// everything else passes through unchanged.
func (vm *VM) promoteValue(v value.Value) value.Value {
	if v.Kind != value.KindString || v.Region != value.RegionEphemeral {
		return v
	}
	s := v.Str()
	if len(s) <= intern.Threshold {
		return value.InternedString(vm.intern.Intern(s))
	}
	return value.String(s)
}
