// Package intern implements the Lattice process-wide string intern
// table (spec.md §4.2): a canonical-pointer cache for short strings,
// grounded on the dogstatsd string interner's mutex+map shape
// (other_examples/fa288ded_DataDog-datadog-agent__comp-dogstatsd-server-intern.go.go)
// but simplified: Lattice never frees an interned payload before
// process teardown, so there is no finalizer/resurrection dance.
package intern

import "sync"

// Threshold is the maximum string length, in bytes, eligible for
// interning; longer strings always allocate directly (spec.md §4.2).
const Threshold = 64

// Table is the process-wide intern table. The zero value is usable.
type Table struct {
	mu      sync.Mutex
	strings map[string]*string
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{strings: make(map[string]*string)}
}

// Intern returns the canonical pointer for s. If s is already present
// the existing pointer is returned without allocating; otherwise s is
// stored and its new canonical pointer returned. Strings longer than
// Threshold are not deduplicated — a fresh pointer is returned every
// call and the table owns nothing for them.
func (t *Table) Intern(s string) *string {
	if len(s) > Threshold {
		dup := s
		return &dup
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.strings == nil {
		t.strings = make(map[string]*string)
	}
	if p, ok := t.strings[s]; ok {
		return p
	}
	dup := s
	t.strings[s] = &dup
	return &dup
}

// Len reports the number of distinct interned strings (diagnostic use).
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strings)
}

// global is the lazily-initialized process-wide singleton, per spec.md
// §9 Design Notes ("model as a lazily-initialized singleton with
// explicit teardown at host shutdown").
var (
	globalOnce sync.Once
	global     *Table
)

// Global returns the process-wide intern table, constructing it on
// first use.
func Global() *Table {
	globalOnce.Do(func() { global = NewTable() })
	return global
}

// ResetGlobal discards the process-wide table's contents. Intended for
// host shutdown/teardown and test isolation only.
func ResetGlobal() {
	globalOnce.Do(func() { global = NewTable() })
	global.mu.Lock()
	defer global.mu.Unlock()
	global.strings = make(map[string]*string)
}
