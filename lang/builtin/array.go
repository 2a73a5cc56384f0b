package builtin

import (
	"sort"
	"strings"

	"github.com/ajokela/lattice-sub005/lang/value"
)

var arrayTable = newTable(map[string]Method{
	"len":    arrayLen,
	"length": arrayLen,
	"push":   arrayPush,
	"pop":    arrayPop,
	"insert": arrayInsert,
	"remove_at": arrayRemoveAt,
	"contains":  arrayContains,
	"index_of":  arrayIndexOf,
	"enumerate": arrayEnumerate,
	"reverse":   arrayReverse,
	"join":      arrayJoin,
	"unique":    arrayUnique,
	"first":     arrayFirst,
	"last":      arrayLast,
	"take":      arrayTake,
	"drop":      arrayDrop,
	"slice":     arraySlice,
	"chunk":     arrayChunk,
	"flat":      arrayFlat,
	"flatten":   arrayFlat,
	"zip":       arrayZip,
	"sum":       arraySum,
	"min":       arrayMin,
	"max":       arrayMax,
	"map":       arrayMap,
	"filter":    arrayFilter,
	"reduce":    arrayReduce,
	"each":      arrayEach,
	"for_each":  arrayEach,
	"find":      arrayFind,
	"any":       arrayAny,
	"all":       arrayAll,
	"flat_map":  arrayFlatMap,
	"sort":      arraySort,
	"sort_by":   arraySortBy,
	"group_by":  arrayGroupBy,
})

func arrayElems(r value.Value) []value.Value { return value.ArrayOf(r).Elems }

func arrayLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(len(arrayElems(r)))), nil
}

func checkMutableArray(r value.Value, op string) error {
	return value.CheckMutable(r, op)
}

func arrayPush(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := checkMutableArray(r, "push"); err != nil {
		return value.Value{}, err
	}
	if len(args) != 1 {
		return value.Value{}, &ErrArity{"push", 1, len(args)}
	}
	a := value.ArrayOf(r)
	a.Elems = append(a.Elems, args[0])
	return r, nil
}

func arrayPop(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := checkMutableArray(r, "pop"); err != nil {
		return value.Value{}, err
	}
	a := value.ArrayOf(r)
	if len(a.Elems) == 0 {
		return value.Nil, nil
	}
	last := a.Elems[len(a.Elems)-1]
	a.Elems = a.Elems[:len(a.Elems)-1]
	return last, nil
}

func arrayInsert(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := checkMutableArray(r, "insert"); err != nil {
		return value.Value{}, err
	}
	if len(args) != 2 {
		return value.Value{}, &ErrArity{"insert", 2, len(args)}
	}
	a := value.ArrayOf(r)
	i := args[0].Int()
	if i < 0 || i > int64(len(a.Elems)) {
		return value.Value{}, &ErrIndexOutOfBounds{"array", i}
	}
	a.Elems = append(a.Elems, value.Nil)
	copy(a.Elems[i+1:], a.Elems[i:])
	a.Elems[i] = args[1]
	return r, nil
}

func arrayRemoveAt(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := checkMutableArray(r, "remove_at"); err != nil {
		return value.Value{}, err
	}
	if len(args) != 1 {
		return value.Value{}, &ErrArity{"remove_at", 1, len(args)}
	}
	a := value.ArrayOf(r)
	i := args[0].Int()
	if i < 0 || i >= int64(len(a.Elems)) {
		return value.Value{}, &ErrIndexOutOfBounds{"array", i}
	}
	removed := a.Elems[i]
	a.Elems = append(a.Elems[:i], a.Elems[i+1:]...)
	return removed, nil
}

func arrayContains(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	for _, e := range arrayElems(r) {
		if value.Equal(e, args[0]) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func arrayIndexOf(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	for i, e := range arrayElems(r) {
		if value.Equal(e, args[0]) {
			return value.Int(int64(i)), nil
		}
	}
	return value.Int(-1), nil
}

func arrayEnumerate(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	out := make([]value.Value, len(src))
	for i, e := range src {
		out[i] = value.Tuple([]value.Value{value.Int(int64(i)), e})
	}
	return value.Array(out), nil
}

func arrayReverse(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	out := make([]value.Value, len(src))
	for i, e := range src {
		out[len(src)-1-i] = e
	}
	return value.Array(out), nil
}

func arrayJoin(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	sep := ""
	if len(args) == 1 {
		sep = args[0].Str()
	}
	var parts []string
	for _, e := range arrayElems(r) {
		parts = append(parts, value.Repr(e))
	}
	return value.String(strings.Join(parts, sep)), nil
}

func arrayUnique(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	seen := value.NewSetData()
	var out []value.Value
	for _, e := range arrayElems(r) {
		if seen.Add(e) {
			out = append(out, e)
		}
	}
	return value.Array(out), nil
}

func arrayFirst(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	if len(src) == 0 {
		return value.Nil, nil
	}
	return src[0], nil
}

func arrayLast(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	if len(src) == 0 {
		return value.Nil, nil
	}
	return src[len(src)-1], nil
}

func arrayTake(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	n := args[0].Int()
	_, end := clampSlice(0, n, int64(len(src)))
	return value.Array(append([]value.Value(nil), src[:end]...)), nil
}

func arrayDrop(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	n := args[0].Int()
	start, _ := clampSlice(n, int64(len(src)), int64(len(src)))
	return value.Array(append([]value.Value(nil), src[start:]...)), nil
}

func arraySlice(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	i, j := clampSlice(args[0].Int(), args[1].Int(), int64(len(src)))
	return value.Array(append([]value.Value(nil), src[i:j]...)), nil
}

func arrayChunk(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	n := int(args[0].Int())
	if n <= 0 {
		return value.Array(nil), nil
	}
	var out []value.Value
	for i := 0; i < len(src); i += n {
		end := i + n
		if end > len(src) {
			end = len(src)
		}
		out = append(out, value.Array(append([]value.Value(nil), src[i:end]...)))
	}
	return value.Array(out), nil
}

func arrayFlat(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range arrayElems(r) {
		if e.Kind == value.KindArray {
			out = append(out, value.ArrayOf(e).Elems...)
		} else {
			out = append(out, e)
		}
	}
	return value.Array(out), nil
}

func arrayZip(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	a := arrayElems(r)
	b := value.ArrayOf(args[0]).Elems
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		out[i] = value.Tuple([]value.Value{a[i], b[i]})
	}
	return value.Array(out), nil
}

func arraySum(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	var iSum int64
	var fSum float64
	isFloat := false
	for _, e := range arrayElems(r) {
		if e.Kind == value.KindFloat {
			isFloat = true
			fSum += e.Float()
		} else {
			iSum += e.Int()
		}
	}
	if isFloat {
		return value.Float(fSum + float64(iSum)), nil
	}
	return value.Int(iSum), nil
}

func arrayMin(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	if len(src) == 0 {
		return value.Nil, nil
	}
	min := src[0]
	for _, e := range src[1:] {
		if lessValue(e, min) {
			min = e
		}
	}
	return min, nil
}

func arrayMax(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	src := arrayElems(r)
	if len(src) == 0 {
		return value.Nil, nil
	}
	max := src[0]
	for _, e := range src[1:] {
		if lessValue(max, e) {
			max = e
		}
	}
	return max, nil
}

func lessValue(a, b value.Value) bool {
	if a.Kind == value.KindFloat || b.Kind == value.KindFloat {
		return numeric(a) < numeric(b)
	}
	return a.Int() < b.Int()
}

func numeric(v value.Value) float64 {
	if v.Kind == value.KindFloat {
		return v.Float()
	}
	return float64(v.Int())
}

func arrayMap(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	src := arrayElems(r)
	out := make([]value.Value, len(src))
	for i, e := range src {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		out[i] = v
	}
	return value.Array(out), nil
}

func arrayFilter(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			out = append(out, e)
		}
	}
	return value.Array(out), nil
}

func arrayReduce(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	acc := args[1]
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{acc, e})
		if err != nil {
			return value.Value{}, err
		}
		acc = v
	}
	return acc, nil
}

func arrayEach(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	for _, e := range arrayElems(r) {
		if _, err := invoke(args[0], []value.Value{e}); err != nil {
			return value.Value{}, err
		}
	}
	return value.Unit, nil
}

func arrayFind(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			return e, nil
		}
	}
	return value.Nil, nil
}

func arrayAny(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func arrayAll(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		if !v.Truthy() {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func arrayFlatMap(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range arrayElems(r) {
		v, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		if v.Kind == value.KindArray {
			out = append(out, value.ArrayOf(v).Elems...)
		} else {
			out = append(out, v)
		}
	}
	return value.Array(out), nil
}

func arraySort(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	src := append([]value.Value(nil), arrayElems(r)...)
	var sortErr error
	sort.SliceStable(src, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if len(args) == 1 {
			v, err := invoke(args[0], []value.Value{src[i], src[j]})
			if err != nil {
				sortErr = err
				return false
			}
			return v.Int() < 0
		}
		return lessValue(src[i], src[j])
	})
	if sortErr != nil {
		return value.Value{}, sortErr
	}
	return value.Array(src), nil
}

func arraySortBy(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	src := append([]value.Value(nil), arrayElems(r)...)
	keys := make([]value.Value, len(src))
	var callErr error
	for i, e := range src {
		k, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		keys[i] = k
	}
	idx := make([]int, len(src))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return lessValue(keys[idx[i]], keys[idx[j]])
	})
	if callErr != nil {
		return value.Value{}, callErr
	}
	out := make([]value.Value, len(src))
	for i, k := range idx {
		out[i] = src[k]
	}
	return value.Array(out), nil
}

func arrayGroupBy(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	groups := value.NewMapData()
	for _, e := range arrayElems(r) {
		k, err := invoke(args[0], []value.Value{e})
		if err != nil {
			return value.Value{}, err
		}
		existing, ok := groups.Get(k)
		if !ok {
			groups.Set(k, value.Array([]value.Value{e}))
			continue
		}
		arr := value.ArrayOf(existing)
		arr.Elems = append(arr.Elems, e)
	}
	pairs := make([]value.MapEntry, 0, groups.Len())
	for _, e := range groups.Entries() {
		pairs = append(pairs, value.MapEntry{Key: e.Key, Val: e.Val})
	}
	return value.Map(pairs), nil
}

var tupleTable = newTable(map[string]Method{
	"len":    tupleLen,
	"length": tupleLen,
})

func tupleLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(len(value.TupleOf(r).Elems))), nil
}
