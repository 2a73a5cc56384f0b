package vm

import (
	"time"

	"github.com/ajokela/lattice-sub005/lang/channel"
	"github.com/ajokela/lattice-sub005/lang/concurrency"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// spawnChild returns a concurrency.ChildRunner that runs closure to
// completion against a freshly cloned VM: a separate value stack and a
// deep-cloned copy of the globals environment, so a spawned body never
// races the parent's mutable state (spec.md §4.10).
func (vm *VM) spawnChild(closure value.Value) concurrency.ChildRunner {
	return func() error {
		child, err := New(Options{Out: vm.out, GasLimit: vm.gasLimit, ImportChunk: vm.importChunk})
		if err != nil {
			return err
		}
		defer child.Close()
		child.globals = vm.globals.CloneDeep(vm.intern)
		_, err = child.callValue(closure, nil)
		return err
	}
}

// doScope implements OP_SCOPE: spawnCount spawn-closures sit on top of
// stack, below them one sync value (a Closure, or Unit for "no
// synchronous body"). The synchronous body runs on this goroutine
// first; every spawn runs concurrently against its own cloned child VM
// (spec.md §4.10).
func (vm *VM) doScope(spawnCount int) error {
	spawnClosures := vm.popN(spawnCount)
	sync_ := vm.pop()

	runners := make([]concurrency.ChildRunner, len(spawnClosures))
	for i, c := range spawnClosures {
		if c.Kind != value.KindClosure {
			return &TypeMismatch{Op: "scope", Expected: "Closure", Got: c.Kind}
		}
		runners[i] = vm.spawnChild(c)
	}

	var syncFn func() error
	if sync_.Kind == value.KindClosure {
		syncFn = func() error {
			_, err := vm.callValue(sync_, nil)
			return err
		}
	}
	return concurrency.RunScope(syncFn, runners)
}

// doSelect implements OP_SELECT. Stack layout, bottom to top: one
// defaultClosureOrUnit, then armCount pairs of (channel, bodyClosure).
// timeoutMillis of 0 means no deadline.
func (vm *VM) doSelect(armCount int, timeoutMillis int) error {
	pairs := vm.popN(2 * armCount)
	defaultVal := vm.pop()
	type rawArm struct {
		ch   *channel.Channel
		body value.Value
	}
	raw := make([]rawArm, armCount)
	for i := 0; i < armCount; i++ {
		chanVal, body := pairs[2*i], pairs[2*i+1]
		handle := value.ChannelOf(chanVal)
		if handle == nil {
			return &TypeMismatch{Op: "select", Expected: "Channel", Got: chanVal.Kind}
		}
		ch, ok := handle.(*channel.Channel)
		if !ok {
			return &TypeMismatch{Op: "select", Expected: "Channel", Got: chanVal.Kind}
		}
		raw[i] = rawArm{ch: ch, body: body}
	}

	arms := make([]concurrency.Arm, armCount)
	for i, r := range raw {
		r := r
		arms[i] = concurrency.Arm{
			Chan: r.ch,
			Ready: func() (value.Value, bool) {
				v, ok, _ := r.ch.TryRecv()
				return v, ok
			},
			Body: func(v value.Value) error {
				_, err := vm.callValue(r.body, []value.Value{v})
				return err
			},
		}
	}

	hasDefault := defaultVal.Kind == value.KindClosure
	var defaultBody func() error
	if hasDefault {
		defaultBody = func() error {
			_, err := vm.callValue(defaultVal, nil)
			return err
		}
	}

	timeout := time.Duration(timeoutMillis) * time.Millisecond
	return concurrency.Select(arms, hasDefault, defaultBody, timeout, nil)
}
