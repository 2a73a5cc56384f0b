// Package concurrency implements the Lattice scope/spawn and select
// primitives (spec.md §4.10): coarse-grained parallelism via one
// goroutine per spawn, joined with golang.org/x/sync/errgroup, and a
// fair, timeout-capable select over channel arms. Grounded on the
// teacher's OpSpawn/OpSend/OpRecv (lang/vm/vm.go), generalized from a
// synchronous single-inbox model to real child-VM threads.
package concurrency

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajokela/lattice-sub005/lang/channel"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// ChildRunner runs one spawned chunk body to completion against its
// own child VM. The VM package supplies the concrete implementation;
// concurrency never constructs a VM itself (avoids a concurrency <->
// vm import cycle, since vm is the package that will call into
// concurrency for OpScope/OpSelect).
type ChildRunner func() error

// RunScope runs every spawn body in parallel via ChildRunner, joining
// all of them and returning the first error encountered (if any). The
// synchronous body (sync, if non-nil) runs first, on the calling
// goroutine, before any spawn starts — matching spec.md §4.10's "run
// the synchronous body first, then clone a child VM per spawn".
func RunScope(sync_ func() error, spawns []ChildRunner) error {
	if sync_ != nil {
		if err := sync_(); err != nil {
			return err
		}
	}
	if len(spawns) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, run := range spawns {
		run := run
		g.Go(func() error { return run() })
	}
	return g.Wait()
}

// Arm is one select arm: Ready performs a non-blocking attempt,
// returning (value, ok). Body executes if Ready succeeded.
type Arm struct {
	Ready func() (value.Value, bool)
	Body  func(value.Value) error
	Chan  *channel.Channel // for waiter registration; nil for a default/timeout pseudo-arm
}

// ErrTimeout signals a select's timeout arm fired.
type ErrTimeout struct{}

func (ErrTimeout) Error() string { return "select: timed out" }

// Select implements spec.md §4.10: shuffles arm order with
// Fisher-Yates each attempt for fairness, tries a non-blocking receive
// on each arm, and falls back to waiting on a shared condition variable
// registered with every channel until one becomes ready, the optional
// deadline passes, or — if a default body is supplied — returns
// immediately when no arm is ready.
func Select(arms []Arm, hasDefault bool, defaultBody func() error, timeout time.Duration, timeoutBody func() error) error {
	order := make([]int, len(arms))
	for i := range order {
		order[i] = i
	}

	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	var removers []func()
	for _, a := range arms {
		if a.Chan == nil {
			continue
		}
		removers = append(removers, a.Chan.AddWaiter(func() {
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		}))
	}
	defer func() {
		for _, r := range removers {
			r()
		}
	}()

	for {
		fisherYates(order)
		for _, i := range order {
			v, ok := arms[i].Ready()
			if ok {
				return arms[i].Body(v)
			}
		}
		if hasDefault {
			return defaultBody()
		}
		if hasDeadline {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				if timeoutBody != nil {
					return timeoutBody()
				}
				return ErrTimeout{}
			}
			woke := make(chan struct{})
			go func() {
				mu.Lock()
				cond.Wait()
				mu.Unlock()
				close(woke)
			}()
			select {
			case <-woke:
			case <-time.After(remaining):
			}
			continue
		}
		mu.Lock()
		cond.Wait()
		mu.Unlock()
	}
}

// fisherYates shuffles order in place, the per-attempt fairness
// mechanism spec.md §4.10/§5 calls for.
func fisherYates(order []int) {
	for i := len(order) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
}
