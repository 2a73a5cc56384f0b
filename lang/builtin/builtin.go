// Package builtin implements the Lattice closed-form built-in method
// table (spec.md §4.9, §6): one table per receiver kind, keyed by
// djb2 method-name hash, generalized from the teacher's
// stdlib/math.go array-helper style (U64Array closures over
// []uint64) to operate on value.Value and to accept user closures for
// map/filter/reduce/each/find/any/all/sort_by/group_by/flat_map.
package builtin

import (
	"fmt"

	"github.com/ajokela/lattice-sub005/lang/pic"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// Invoke calls a Lattice closure with args, used by callback-taking
// methods (map, filter, reduce, ...). The VM supplies the real
// implementation; built-in methods never call a closure directly.
type Invoke func(closure value.Value, args []value.Value) (value.Value, error)

// Method is one built-in operation: receiver plus pre-popped args in,
// a Value or error out.
type Method func(receiver value.Value, args []value.Value, invoke Invoke) (value.Value, error)

type entry struct {
	name string
	fn   Method
}

type table map[uint64]entry

func (t table) lookup(name string) (Method, bool) {
	e, ok := t[pic.Hash(name)]
	if !ok || e.name != name {
		return nil, false
	}
	return e.fn, true
}

func newTable(methods map[string]Method) table {
	t := make(table, len(methods))
	for name, fn := range methods {
		t[pic.Hash(name)] = entry{name: name, fn: fn}
	}
	return t
}

var tables map[value.Kind]table

func init() {
	tables = map[value.Kind]table{
		value.KindArray:   arrayTable,
		value.KindString:  stringTable,
		value.KindMap:     mapTable,
		value.KindSet:     setTable,
		value.KindTuple:   tupleTable,
		value.KindRange:   rangeTable,
		value.KindBuffer:  bufferTable,
		value.KindEnum:    enumTable,
		value.KindChannel: channelTable,
		value.KindRef:     refTable,
	}
}

// Resolve looks up the built-in handler for receiver.Kind/name,
// reporting found=false if no built-in matches — the dispatch order's
// step 2 (spec.md §4.9). HandlerID is an opaque id stable for the
// lifetime of the process (used by pic to skip lookup on a cache hit).
func Resolve(kind value.Kind, name string) (id int32, found bool) {
	t, ok := tables[kind]
	if !ok {
		return 0, false
	}
	h := pic.Hash(name)
	e, ok := t[h]
	if !ok || e.name != name {
		return 0, false
	}
	return int32(h), true
}

// Call invokes receiver.name(args...), applying Ref proxying when the
// receiver is a Ref over a Map/Array (spec.md §4.9: "Ref values proxy
// get/set/deref/inner_type plus all map and array methods when the
// inner kind matches").
func Call(receiver value.Value, name string, args []value.Value, invoke Invoke) (value.Value, bool, error) {
	t, ok := tables[receiver.Kind]
	if ok {
		if fn, ok := t.lookup(name); ok {
			return mustCall(fn, receiver, args, invoke)
		}
	}
	if receiver.Kind == value.KindRef {
		inner := value.RefOf(receiver).Inner
		if it, ok := tables[inner.Kind]; ok {
			if fn, ok := it.lookup(name); ok {
				return mustCall(fn, inner, args, invoke)
			}
		}
	}
	return value.Value{}, false, nil
}

func mustCall(fn Method, receiver value.Value, args []value.Value, invoke Invoke) (value.Value, bool, error) {
	v, err := fn(receiver, args, invoke)
	return v, true, err
}

// ErrArity reports a wrong-arity built-in method call.
type ErrArity struct {
	Method   string
	Expected int
	Got      int
}

func (e *ErrArity) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Method, e.Expected, e.Got)
}

// ErrIndexOutOfBounds reports an out-of-range array/string/tuple/buffer index.
type ErrIndexOutOfBounds struct {
	Kind  string
	Index int64
}

func (e *ErrIndexOutOfBounds) Error() string {
	return fmt.Sprintf("%s index out of bounds: %d", e.Kind, e.Index)
}

// FindSimilarMethod performs an edit-distance search over the built-in
// method names defined for kind, used to enrich the "method not found"
// error (spec.md §4.9 dispatch step 5).
func FindSimilarMethod(kind value.Kind, target string) (string, bool) {
	t, ok := tables[kind]
	if !ok {
		return "", false
	}
	best, bestDist := "", -1
	for _, e := range t {
		d := editDistance(target, e.name)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = e.name
		}
	}
	if bestDist < 0 || bestDist > 2 {
		return "", false
	}
	return best, true
}

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
			del, ins, sub := prev[j]+1, curr[j-1]+1, prev[j-1]+cost
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

func clampSlice(i, j, length int64) (int64, int64) {
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	if j < 0 {
		j = 0
	}
	if j > length {
		j = length
	}
	if j < i {
		j = i
	}
	return i, j
}
