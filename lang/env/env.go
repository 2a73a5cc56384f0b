// Package env implements the Lattice environment: a growable stack of
// string-keyed scopes (spec.md §4.5).
package env

import "github.com/ajokela/lattice-sub005/lang/value"

// scope is one open-addressed hash map of bindings. Go's built-in map
// already open-addresses internally; a plain map is the idiomatic Go
// stand-in for the spec's "open-addressed hash map" scope.
type scope struct {
	bindings map[string]value.Value
}

func newScope() *scope { return &scope{bindings: make(map[string]value.Value)} }

// Environment is a stack of scopes, outermost first.
type Environment struct {
	scopes []*scope
}

// New constructs an Environment with a single, empty top-level scope.
func New() *Environment {
	return &Environment{scopes: []*scope{newScope()}}
}

// PushScope opens a new, empty scope.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, newScope())
}

// PopScope discards the innermost scope and every binding in it.
func (e *Environment) PopScope() {
	if len(e.scopes) == 0 {
		return
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// Depth returns the number of open scopes.
func (e *Environment) Depth() int { return len(e.scopes) }

// Define binds name to v in the innermost scope.
func (e *Environment) Define(name string, v value.Value) {
	e.scopes[len(e.scopes)-1].bindings[name] = v
}

// DefineAt binds name to v in the scope at the given depth index
// (0 = outermost), used by the compiler-driven local-slot allocation
// scheme.
func (e *Environment) DefineAt(depth int, name string, v value.Value) {
	if depth < 0 || depth >= len(e.scopes) {
		return
	}
	e.scopes[depth].bindings[name] = v
}

// Get looks up name, walking from the innermost scope outward. hash is
// accepted for API parity with a pre-computed-hash fast path (spec.md
// §4.5); Go maps hash internally, so it is otherwise unused here —
// kept so callers driven by the chunk's constant-pool hash array don't
// need two code paths.
func (e *Environment) Get(name string, hash uint64) (value.Value, bool) {
	_ = hash
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i].bindings[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// Set finds and updates the scope that already owns the binding,
// searching from the outermost scope to the innermost (the opposite
// direction to Get), so when name is bound in several scopes the
// outermost binding is the one updated. It reports false if no scope
// binds name.
func (e *Environment) Set(name string, v value.Value) bool {
	for i := 0; i < len(e.scopes); i++ {
		if _, ok := e.scopes[i].bindings[name]; ok {
			e.scopes[i].bindings[name] = v
			return true
		}
	}
	return false
}

// Remove deletes name from whichever scope holds it, reporting success.
func (e *Environment) Remove(name string) bool {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i].bindings[name]; ok {
			delete(e.scopes[i].bindings, name)
			return true
		}
	}
	return false
}

// CloneDeep produces an independent copy of the environment for
// closure/spawn capture: every scope and binding is duplicated, and
// every reachable Value is deep-cloned so the clone shares no mutable
// state with the original (spec.md §4.5, §4.10).
func (e *Environment) CloneDeep(intern value.Interner) *Environment {
	clone := &Environment{scopes: make([]*scope, len(e.scopes))}
	for i, s := range e.scopes {
		ns := newScope()
		for k, v := range s.bindings {
			ns.bindings[k] = value.DeepClone(v, intern)
		}
		clone.scopes[i] = ns
	}
	return clone
}

// IterateValues calls fn for every binding across every scope, used by
// the GC root scanner.
func (e *Environment) IterateValues(fn func(value.Value)) {
	for _, s := range e.scopes {
		for _, v := range s.bindings {
			fn(v)
		}
	}
}

// FindSimilarName performs an edit-distance search over every binding
// name currently in scope, used only on the "undefined variable" error
// path to enrich diagnostics (spec.md §4.5).
func (e *Environment) FindSimilarName(target string) (string, bool) {
	best := ""
	bestDist := -1
	for _, s := range e.scopes {
		for name := range s.bindings {
			d := editDistance(target, name)
			if bestDist == -1 || d < bestDist {
				bestDist = d
				best = name
			}
		}
	}
	// Only suggest names within a plausible typo distance.
	if bestDist < 0 || bestDist > maxSuggestDistance(target) {
		return "", false
	}
	return best, true
}

func maxSuggestDistance(s string) int {
	if len(s) <= 4 {
		return 1
	}
	return 2
}

// editDistance computes the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
