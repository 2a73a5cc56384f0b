package vm

import "github.com/ajokela/lattice-sub005/lang/value"

// handlerFrame is one entry of the exception-handler stack (spec.md
// §4.8 OP_PUSH_EXCEPTION_HANDLER): where to resume, which frame owns
// the handler, and how far to unwind the value stack.
type handlerFrame struct {
	IP        int
	FrameIndex int
	StackTop  int
}

// deferEntry is one pending deferred body (spec.md §4.8 OP_DEFER_PUSH):
// an inline code range within the owning frame's chunk, run later by
// OP_DEFER_RUN rather than as a separately-called closure.
type deferEntry struct {
	FrameIndex int
	ScopeDepth int
	BodyIP     int
	EndIP      int
}

// ThrownValue wraps a user-thrown value so it can travel through Go's
// error-return path until a handler (or the top level) catches it.
type ThrownValue struct {
	Value value.Value
}

func (t *ThrownValue) Error() string { return "throw: " + value.Repr(t.Value) }

// raiseThrow is how OP_THROW and a failing OP_TRY_UNWRAP both signal
// the unwind path.
func raiseThrow(v value.Value) error { return &ThrownValue{Value: v} }

// opPushExceptionHandler records a handler entry covering the frame
// currently executing, targeting the absolute bytecode offset ip.
func (vm *VM) opPushExceptionHandler(ip int) {
	vm.handlers = append(vm.handlers, handlerFrame{
		IP:         ip,
		FrameIndex: len(vm.frames) - 1,
		StackTop:   len(vm.stack),
	})
}

// opPopExceptionHandler discards the innermost handler entry (a
// normal, non-throwing exit from the protected block). It does not
// check which frame pushed that entry.
func (vm *VM) opPopExceptionHandler() {
	if n := len(vm.handlers); n > 0 {
		vm.handlers = vm.handlers[:n-1]
	}
}

// unwindToHandler pops the innermost handler (if any), unwinds frames
// and the value stack to match it, and resumes execution at the
// handler's IP with the thrown value on top of stack. Returns false
// (propagate err to the caller) if no handler remains.
func (vm *VM) unwindToHandler(err error) bool {
	if len(vm.handlers) == 0 {
		return false
	}
	h := vm.handlers[len(vm.handlers)-1]
	vm.handlers = vm.handlers[:len(vm.handlers)-1]

	for len(vm.frames)-1 > h.FrameIndex {
		f := vm.frame()
		vm.closeUpvaluesFrom(f.SlotsBase)
		vm.popFrame()
	}
	if h.StackTop <= len(vm.stack) {
		vm.stack = vm.stack[:h.StackTop]
	}

	var thrown value.Value
	if tv, ok := err.(*ThrownValue); ok {
		thrown = tv.Value
	} else {
		thrown = value.String(err.Error())
	}
	vm.push(thrown)
	vm.frame().IP = h.IP
	return true
}

// opTryUnwrap implements the surface `?` operator: an Enum-shaped
// Result value either unwraps its Ok payload or throws its Err
// payload; any other value passes through unchanged (spec.md §4.8).
func (vm *VM) opTryUnwrap() error {
	result := vm.pop()
	ed := value.EnumOf(result)
	if ed == nil {
		vm.push(result)
		return nil
	}
	switch ed.VariantName {
	case "Err":
		payload := value.Nil
		if len(ed.Payload) > 0 {
			payload = ed.Payload[0]
		}
		return raiseThrow(payload)
	case "Ok":
		if len(ed.Payload) > 0 {
			vm.push(ed.Payload[0])
		} else {
			vm.push(value.Unit)
		}
		return nil
	default:
		vm.push(result)
		return nil
	}
}

// opDeferPush records the deferred body inline at bodyIP..bodyIP+skip
// and returns the frame IP to resume at (skipping the body on the
// normal, non-deferred control path).
func (vm *VM) opDeferPush(scopeDepth, skip int) int {
	f := vm.frame()
	bodyIP := f.IP
	vm.defers = append(vm.defers, deferEntry{
		FrameIndex: len(vm.frames) - 1,
		ScopeDepth: scopeDepth,
		BodyIP:     bodyIP,
		EndIP:      bodyIP + skip,
	})
	return bodyIP + skip
}

// opDeferRun runs every deferred body registered at or above threshold
// in the current frame, LIFO, preserving whatever value sits on top of
// the stack (typically a pending return value) around each body.
func (vm *VM) opDeferRun(threshold int) error {
	frameIdx := len(vm.frames) - 1
	for len(vm.defers) > 0 {
		d := vm.defers[len(vm.defers)-1]
		if d.FrameIndex != frameIdx || d.ScopeDepth < threshold {
			break
		}
		vm.defers = vm.defers[:len(vm.defers)-1]

		var stash value.Value
		hadStash := len(vm.stack) > 0
		if hadStash {
			stash = vm.pop()
		}
		if err := vm.runDeferBody(d); err != nil {
			return err
		}
		if hadStash {
			vm.push(stash)
		}
	}
	return nil
}

// runDeferBody executes one deferred code range inline against its
// owning frame, advancing past any nested calls it makes until control
// returns to that same frame at or past EndIP.
func (vm *VM) runDeferBody(d deferEntry) error {
	f := vm.frames[d.FrameIndex]
	savedIP := f.IP
	f.IP = d.BodyIP
	for {
		if len(vm.frames)-1 == d.FrameIndex && f.IP >= d.EndIP {
			break
		}
		_, done, err := vm.step()
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	if len(vm.frames) > d.FrameIndex {
		vm.frames[d.FrameIndex].IP = savedIP
	}
	return nil
}
