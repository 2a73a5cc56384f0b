// Package phase implements the Lattice reactive layer (spec.md §9,
// GLOSSARY): bonds cascade a freeze from a dependency variable to a
// target, seeds attach a freeze-time validation contract, and
// reactions fire a callback whenever a variable's phase changes.
// There is no teacher analogue for a reactive system; this package is
// grounded directly on spec.md's description, shaped as a small
// registry-of-callbacks type in the same spirit as the teacher's
// small-struct-with-methods packages (lang/gc, lang/intern).
package phase

import (
	"fmt"

	"github.com/ajokela/lattice-sub005/lang/value"
)

// SeedFailed is returned when a seed's validation contract rejects a
// value at freeze time.
type SeedFailed struct {
	Var    string
	Reason string
}

func (e *SeedFailed) Error() string {
	return fmt.Sprintf("seed contract failed for %q: %s", e.Var, e.Reason)
}

// ReactionFunc is invoked with (oldPhase, newPhase, currentValue)
// whenever a reacted-on variable's phase changes.
type ReactionFunc func(old, new value.Phase, current value.Value)

// SeedFunc validates v at freeze time, returning an error (reason) if
// v fails the contract.
type SeedFunc func(v value.Value) error

// Runtime tracks the reactive bindings active for one VM: which
// variables bond to which, which variables carry a seed contract, and
// which variables have reactions registered. Keyed by variable name,
// matching the env package's string-keyed binding model.
type Runtime struct {
	bonds     map[string][]string // dependency -> targets that cascade-freeze with it
	seeds     map[string]SeedFunc
	reactions map[string][]ReactionFunc
}

// New constructs an empty reactive Runtime.
func New() *Runtime {
	return &Runtime{
		bonds:     make(map[string][]string),
		seeds:     make(map[string]SeedFunc),
		reactions: make(map[string][]ReactionFunc),
	}
}

// Bond registers that freezing dependency must cascade to target.
func (r *Runtime) Bond(dependency, target string) {
	r.bonds[dependency] = append(r.bonds[dependency], target)
}

// Unbond removes a previously registered dependency -> target bond.
func (r *Runtime) Unbond(dependency, target string) {
	list := r.bonds[dependency]
	for i, t := range list {
		if t == target {
			r.bonds[dependency] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Targets returns every variable that must cascade-freeze when
// dependency freezes.
func (r *Runtime) Targets(dependency string) []string {
	return r.bonds[dependency]
}

// Seed attaches a validation contract to a variable, run whenever that
// variable freezes.
func (r *Runtime) Seed(name string, fn SeedFunc) {
	r.seeds[name] = fn
}

// Unseed removes a variable's validation contract.
func (r *Runtime) Unseed(name string) {
	delete(r.seeds, name)
}

// CheckSeed runs name's seed contract (if any) against v, returning a
// *SeedFailed if it rejects v.
func (r *Runtime) CheckSeed(name string, v value.Value) error {
	fn, ok := r.seeds[name]
	if !ok {
		return nil
	}
	if err := fn(v); err != nil {
		return &SeedFailed{Var: name, Reason: err.Error()}
	}
	return nil
}

// React registers fn to run whenever name's phase changes.
func (r *Runtime) React(name string, fn ReactionFunc) {
	r.reactions[name] = append(r.reactions[name], fn)
}

// Unreact clears every reaction registered for name.
func (r *Runtime) Unreact(name string) {
	delete(r.reactions, name)
}

// Notify fires every reaction registered for name with the phase
// transition and current value.
func (r *Runtime) Notify(name string, old, new value.Phase, current value.Value) {
	for _, fn := range r.reactions[name] {
		fn(old, new, current)
	}
}
