// Package channel implements the Lattice bounded channel (spec.md
// §4.6): a fixed-capacity FIFO queue with close semantics, a
// multi-waiter condition variable, and a single-writer phase rule.
// Generalized from the teacher's synchronous OpSend/OpRecv inbox
// (lang/vm/vm.go) into a real bounded, condvar-backed, multi-waiter
// queue.
package channel

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ajokela/lattice-sub005/lang/value"
)

// Channel is a bounded FIFO queue of value.Value, implementing
// value.ChannelHandle.
type Channel struct {
	id       string
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []value.Value
	capacity int
	closed   bool
	refcount int32

	waiters       int // count of goroutines parked in Recv; a rendezvous Send waits for it to be non-zero
	selectWaiters []*waiterEntry
}

// New constructs a Channel with the given buffer capacity (0 means
// rendezvous/unbuffered: Send blocks until a Recv is waiting).
func New(capacity int) *Channel {
	c := &Channel{
		id:       uuid.NewString(),
		capacity: capacity,
		refcount: 1,
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// ID returns the channel's stable identifier.
func (c *Channel) ID() string { return c.id }

// ErrClosed is returned by Send on a closed channel.
type ErrClosed struct{}

func (ErrClosed) Error() string { return "channel: send on closed channel" }

// ErrUnsendablePhase is returned when Send is given a Fluid value: only
// Crystal or Unphased values may cross a channel (spec.md §4.6, the
// single-writer phase rule — a Fluid value sent across goroutines would
// alias mutable state without synchronization).
type ErrUnsendablePhase struct {
	Phase value.Phase
}

func (e ErrUnsendablePhase) Error() string {
	return "channel: cannot send a " + e.Phase.String() + " value (only crystal/unphased values may be sent)"
}

// Send enqueues v, blocking while the buffer is full, and errors if the
// channel is closed or v's phase rejects cross-goroutine sharing.
func (c *Channel) Send(v value.Value) error {
	if v.Phase == value.Fluid {
		return ErrUnsendablePhase{Phase: v.Phase}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.closed && len(c.buf) >= c.capacity && c.capacity > 0 {
		c.notFull.Wait()
	}
	if c.closed {
		return ErrClosed{}
	}
	if c.capacity == 0 {
		// Rendezvous channel: wait for a receiver to be parked before
		// handing off, so Send never "succeeds" into the void.
		for c.waiters == 0 && !c.closed {
			c.notFull.Wait()
		}
		if c.closed {
			return ErrClosed{}
		}
	}
	c.buf = append(c.buf, v)
	c.notEmpty.Signal()
	c.notifySelectWaiters()
	return nil
}

// Recv blocks until a value is available or the channel closes,
// reporting false once the channel is closed and drained.
func (c *Channel) Recv() (value.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters++
	c.notFull.Signal() // wake a rendezvous sender waiting for a receiver
	for len(c.buf) == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	c.waiters--
	if len(c.buf) == 0 {
		return value.Nil, false
	}
	v := c.buf[0]
	c.buf = c.buf[1:]
	c.notFull.Signal()
	return v, true
}

// TryRecv performs a non-blocking receive: (value, hadValue, stillOpen).
func (c *Channel) TryRecv() (value.Value, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) == 0 {
		return value.Nil, false, !c.closed
	}
	v := c.buf[0]
	c.buf = c.buf[1:]
	c.notFull.Signal()
	return v, true, !c.closed
}

// Close marks the channel closed and wakes every blocked Send/Recv.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
	c.notifySelectWaiters()
}

// notifySelectWaiters calls every registered select-arm callback. Must
// be called with c.mu held.
func (c *Channel) notifySelectWaiters() {
	for _, w := range c.selectWaiters {
		w.notify()
	}
}

// Retain increments the reference count (a new handle alias was made,
// e.g. by FastClone copying a Channel Value around).
func (c *Channel) Retain() { atomic.AddInt32(&c.refcount, 1) }

// Release decrements the reference count. The channel itself has no
// OS resources to free; Release exists so the VM's drop bookkeeping is
// symmetric with Retain (spec.md §4.6).
func (c *Channel) Release() { atomic.AddInt32(&c.refcount, -1) }

// Len reports the number of buffered, unreceived values.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Closed reports whether Close has been called.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AddWaiter registers a select-arm waiter so Select can park on several
// channels at once; it returns a function that must be called to
// deregister. The waiter is woken by a send/close via the supplied
// notify callback.
func (c *Channel) AddWaiter(notify func()) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &waiterEntry{notify: notify}
	c.selectWaiters = append(c.selectWaiters, w)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.selectWaiters {
			if e == w {
				c.selectWaiters = append(c.selectWaiters[:i], c.selectWaiters[i+1:]...)
				break
			}
		}
	}
}

type waiterEntry struct {
	notify func()
}

var _ value.ChannelHandle = (*Channel)(nil)
