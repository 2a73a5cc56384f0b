package vm

import (
	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// maxFrames bounds call recursion depth.
const maxFrames = 4096

// Frame is one activation record (spec.md §4.8). Locals live directly
// on the value stack starting at SlotsBase; slot 0 is the closure
// itself (clox-style), so a local's absolute stack index is
// SlotsBase + localIndex.
type Frame struct {
	Chunk   *chunk.Chunk
	IP      int
	SlotsBase int
	Upvalues  []*value.Upvalue

	// HandlerBase/DeferBase record the watermark of vm.handlers/vm.defers
	// at frame entry, so a RETURN or unwind knows which entries belong
	// to this frame and must be discarded with it.
	HandlerBase int
	DeferBase   int
}

func (vm *VM) pushFrame(c *chunk.Chunk, slotsBase int, upvalues []*value.Upvalue) *Frame {
	f := &Frame{
		Chunk:       c,
		SlotsBase:   slotsBase,
		Upvalues:    upvalues,
		HandlerBase: len(vm.handlers),
		DeferBase:   len(vm.defers),
	}
	vm.frames = append(vm.frames, f)
	return f
}

func (vm *VM) popFrame() *Frame {
	n := len(vm.frames) - 1
	f := vm.frames[n]
	vm.frames = vm.frames[:n]
	return f
}

// invokeClosure sets up (or immediately runs, for natives) a call for
// the closure sitting argCount slots below the current stack top, with
// its arguments above it — the shared convention for both OP_CALL and
// a built-in method calling back into a user closure (map/filter/...).
func (vm *VM) invokeClosure(argCount int) error {
	closureIdx := len(vm.stack) - argCount - 1
	if closureIdx < 0 {
		return ErrStackUnderflow
	}
	closureVal := vm.stack[closureIdx]
	cd := value.ClosureOf(closureVal)
	if cd == nil {
		return &TypeMismatch{Op: "call", Expected: "Closure", Got: closureVal.Kind}
	}
	if cd.IsNative() {
		args := vm.popN(argCount)
		vm.pop() // the closure value itself
		result, err := cd.Native(args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}
	c, _ := cd.Chunk.(*chunk.Chunk)
	if c == nil {
		return &TypeMismatch{Op: "call", Expected: "compiled closure", Got: closureVal.Kind}
	}
	newArgCount, err := vm.adjustArgs(c, argCount, closureIdx)
	if err != nil {
		return err
	}
	if len(vm.frames) >= maxFrames {
		return ErrStackOverflow
	}
	// Entering a new non-native frame promotes the caller's own
	// ephemeral strings first (spec.md §4.3): the callee may run its
	// own OP_RESET_EPHEMERAL against the shared arena before returning,
	// which would otherwise invalidate data the caller still aliases.
	vm.promoteFrame(vm.frame())
	var upvalues []*value.Upvalue
	if cd.Capture == value.CaptureUpvalues {
		upvalues = cd.Upvalues
	}
	vm.pushFrame(c, closureIdx+1, upvalues)
	_ = newArgCount
	return nil
}

// adjustArgs fills in missing trailing default arguments and collects
// a trailing variadic rest-array, per spec.md §4.8, returning the
// final parameter count now sitting on the stack.
func (vm *VM) adjustArgs(c *chunk.Chunk, argCount, closureIdx int) (int, error) {
	params := c.Arity
	if c.Variadic {
		fixed := params - 1
		if fixed < 0 {
			fixed = 0
		}
		if argCount < fixed {
			return 0, &WrongArity{Name: c.Name, Expected: fixed, Got: argCount}
		}
		restStart := closureIdx + 1 + fixed
		rest := append([]value.Value(nil), vm.stack[restStart:]...)
		vm.stack = vm.stack[:restStart]
		vm.push(value.Array(rest))
		return fixed + 1, nil
	}

	required := params - len(c.Defaults)
	if required < 0 {
		required = 0
	}
	if argCount < required || argCount > params {
		return 0, &WrongArity{Name: c.Name, Expected: params, Got: argCount}
	}
	for argCount < params {
		defIdx := argCount - required
		if defIdx < 0 || defIdx >= len(c.Defaults) {
			return 0, &WrongArity{Name: c.Name, Expected: params, Got: argCount}
		}
		vm.push(c.Defaults[defIdx])
		argCount++
	}
	return params, nil
}

// callValue invokes closure with args already materialized (the
// builtin.Invoke seam), running it to completion and returning its
// result.
func (vm *VM) callValue(closure value.Value, args []value.Value) (value.Value, error) {
	depthBefore := len(vm.frames)
	vm.push(closure)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.invokeClosure(len(args)); err != nil {
		return value.Value{}, err
	}
	if len(vm.frames) == depthBefore {
		// native closure already ran to completion
		return vm.pop(), nil
	}
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
	return vm.pop(), nil
}

// doReturn implements OP_RETURN: pop the return value, sever any open
// upvalues aliasing this frame's locals, discard the frame, and either
// finish the program (no caller left) or push the result for the
// caller.
func (vm *VM) doReturn() (value.Value, bool) {
	retVal := vm.pop()
	f := vm.frame()
	vm.closeUpvaluesFrom(f.SlotsBase)
	vm.stack = vm.stack[:f.SlotsBase-1]
	vm.popFrame()
	if len(vm.frames) == 0 {
		return retVal, true
	}
	vm.push(retVal)
	return value.Value{}, false
}

// closeUpvaluesFrom closes (copies out, severs the alias) every open
// upvalue pointing at a stack slot >= minSlot, since those slots are
// about to be invalidated by a frame pop.
func (vm *VM) closeUpvaluesFrom(minSlot int) {
	for slot, uv := range vm.openUpvalues {
		if slot >= minSlot {
			uv.Close()
			delete(vm.openUpvalues, slot)
		}
	}
}

// openUpvalueAt returns the open upvalue aliasing absolute stack slot,
// creating one if none exists yet (so two closures capturing the same
// local share one cell, per spec.md §3 Lifecycles).
func (vm *VM) openUpvalueAt(slot int) *value.Upvalue {
	if uv, ok := vm.openUpvalues[slot]; ok {
		return uv
	}
	uv := &value.Upvalue{Open: true, Location: &vm.stack[slot]}
	vm.openUpvalues[slot] = uv
	return uv
}
