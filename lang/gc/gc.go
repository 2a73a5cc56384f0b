// Package gc implements the Lattice mark-and-sweep collector
// (spec.md §4.4): an intrusive singly linked list of tracked
// allocations, each prefixed by a header, grown adaptively and swept
// from a host-supplied root set. Grounded on the teacher's
// lang/vm/memory.go allocation-tracking idiom (a map from handle to
// live-region descriptor), generalized from "free on request" to
// "free on sweep when unmarked".
package gc

// header is the intrusive node every tracked allocation is prefixed
// with (spec.md §4.4: "header {next, marked}").
type header struct {
	next    *header
	marked  bool
	payload interface{}
}

// RootScanner is supplied by the host (the VM) so gc has no import-time
// dependency on lang/vm: every slot between stack base and stack top,
// every environment binding, every open upvalue and closed value, and
// every frame's upvalues.
type RootScanner interface {
	// ScanRoots calls mark for every root Value's reachable GC-tracked
	// payload. The payload identity passed to mark must be the same
	// interface{} handed to GC.Track for that allocation (typically the
	// composite's backing pointer, e.g. *value.ArrayData).
	ScanRoots(mark func(payload interface{}))
}

// GC is the Lattice collector. The zero value is disabled; call
// SetEnabled(true) to activate (spec.md §4.4: "GC is disabled by
// default; the host enables it explicitly").
type GC struct {
	head      *header
	byPayload map[interface{}]*header
	enabled   bool
	stress    bool

	trackedCount int
	threshold    int
	freed        int
}

// New constructs a disabled GC with the default adaptive threshold.
func New() *GC {
	return &GC{
		byPayload: make(map[interface{}]*header),
		threshold: 64,
	}
}

// SetEnabled toggles whether Alloc triggers collection checks at all.
func (g *GC) SetEnabled(v bool) { g.enabled = v }

// SetStress enables collect-on-every-allocation mode (spec.md §4.4).
func (g *GC) SetStress(v bool) { g.stress = v }

// Track registers payload as a GC-managed allocation. It never
// collects by itself; the caller checks ShouldCollect and decides when
// to actually Collect.
func (g *GC) Track(payload interface{}) {
	h := &header{payload: payload, next: g.head}
	g.head = h
	g.byPayload[payload] = h
	g.trackedCount++
}

// ShouldCollect reports whether the tracked count has crossed the
// adaptive threshold (or stress mode is on), per spec.md §4.4: "A
// collection is triggered whenever tracked_count > next_threshold."
func (g *GC) ShouldCollect() bool {
	if !g.enabled {
		return false
	}
	return g.stress || g.trackedCount > g.threshold
}

// Collect runs one mark-and-sweep cycle against the roots scanner,
// freeing (i.e. untracking) every allocation not reached from roots,
// then grows the threshold to 2x the post-sweep live count.
func (g *GC) Collect(roots RootScanner) {
	for h := g.head; h != nil; h = h.next {
		h.marked = false
	}

	roots.ScanRoots(func(payload interface{}) {
		g.mark(payload)
	})

	g.sweep()

	live := g.trackedCount
	next := live * 2
	if next < 64 {
		next = 64
	}
	g.threshold = next
}

func (g *GC) mark(payload interface{}) {
	h, ok := g.byPayload[payload]
	if !ok || h.marked {
		return
	}
	h.marked = true
}

func (g *GC) sweep() {
	var newHead *header
	var tail *header
	live := 0
	for h := g.head; h != nil; {
		next := h.next
		if h.marked {
			h.next = nil
			if newHead == nil {
				newHead = h
				tail = h
			} else {
				tail.next = h
				tail = h
			}
			live++
		} else {
			delete(g.byPayload, h.payload)
			g.freed++
		}
		h = next
	}
	g.head = newHead
	g.trackedCount = live
}

// Stats reports cumulative GC counters for diagnostics.
type Stats struct {
	Tracked int
	Freed   int
}

// Stats returns a snapshot of collector counters.
func (g *GC) Stats() Stats {
	return Stats{Tracked: g.trackedCount, Freed: g.freed}
}
