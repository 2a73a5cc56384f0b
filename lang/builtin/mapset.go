package builtin

import "github.com/ajokela/lattice-sub005/lang/value"

var mapTable = newTable(map[string]Method{
	"len":      mapLen,
	"length":   mapLen,
	"keys":     mapKeys,
	"values":   mapValues,
	"entries":  mapEntries,
	"get":      mapGet,
	"has":      mapHas,
	"contains": mapHas,
	"set":      mapSet,
	"remove":   mapRemove,
	"merge":    mapMerge,
	"for_each": mapForEach,
	"filter":   mapFilter,
	"map":      mapMap,
})

func mapLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(value.MapOf(r).Len())), nil
}

func mapKeys(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range value.MapOf(r).Entries() {
		out = append(out, e.Key)
	}
	return value.Array(out), nil
}

func mapValues(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range value.MapOf(r).Entries() {
		out = append(out, e.Val)
	}
	return value.Array(out), nil
}

func mapEntries(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	var out []value.Value
	for _, e := range value.MapOf(r).Entries() {
		out = append(out, value.Tuple([]value.Value{e.Key, e.Val}))
	}
	return value.Array(out), nil
}

func mapGet(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	v, ok := value.MapOf(r).Get(args[0])
	if !ok {
		return value.Nil, nil
	}
	return v, nil
}

func mapHas(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	_, ok := value.MapOf(r).Get(args[0])
	return value.Bool(ok), nil
}

func mapSet(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "set"); err != nil {
		return value.Value{}, err
	}
	m := value.MapOf(r)
	if e := m.Entry(args[0]); e != nil && e.Frozen {
		return value.Value{}, &value.PhaseError{Op: "set", Kind: value.KindMap}
	}
	m.Set(args[0], args[1])
	return r, nil
}

func mapRemove(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "remove"); err != nil {
		return value.Value{}, err
	}
	m := value.MapOf(r)
	if e := m.Entry(args[0]); e != nil && e.Frozen {
		return value.Value{}, &value.PhaseError{Op: "remove", Kind: value.KindMap}
	}
	return value.Bool(m.Remove(args[0])), nil
}

func mapMerge(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	out := value.NewMapData()
	for _, e := range value.MapOf(r).Entries() {
		out.Set(e.Key, e.Val)
	}
	for _, e := range value.MapOf(args[0]).Entries() {
		out.Set(e.Key, e.Val)
	}
	pairs := make([]value.MapEntry, 0, out.Len())
	for _, e := range out.Entries() {
		pairs = append(pairs, value.MapEntry{Key: e.Key, Val: e.Val})
	}
	return value.Map(pairs), nil
}

func mapForEach(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	for _, e := range value.MapOf(r).Entries() {
		if _, err := invoke(args[0], []value.Value{e.Key, e.Val}); err != nil {
			return value.Value{}, err
		}
	}
	return value.Unit, nil
}

func mapFilter(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	out := value.NewMapData()
	for _, e := range value.MapOf(r).Entries() {
		v, err := invoke(args[0], []value.Value{e.Key, e.Val})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			out.Set(e.Key, e.Val)
		}
	}
	pairs := make([]value.MapEntry, 0, out.Len())
	for _, e := range out.Entries() {
		pairs = append(pairs, value.MapEntry{Key: e.Key, Val: e.Val})
	}
	return value.Map(pairs), nil
}

func mapMap(r value.Value, args []value.Value, invoke Invoke) (value.Value, error) {
	out := value.NewMapData()
	for _, e := range value.MapOf(r).Entries() {
		v, err := invoke(args[0], []value.Value{e.Key, e.Val})
		if err != nil {
			return value.Value{}, err
		}
		out.Set(e.Key, v)
	}
	pairs := make([]value.MapEntry, 0, out.Len())
	for _, e := range out.Entries() {
		pairs = append(pairs, value.MapEntry{Key: e.Key, Val: e.Val})
	}
	return value.Map(pairs), nil
}

var setTable = newTable(map[string]Method{
	"has":          setHas,
	"contains":     setHas,
	"add":          setAdd,
	"remove":       setRemove,
	"len":          setLen,
	"length":       setLen,
	"to_array":     setToArray,
	"union":        setUnion,
	"intersection": setIntersection,
	"difference":   setDifference,
	"is_subset":    setIsSubset,
	"is_superset":  setIsSuperset,
})

func setHas(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(value.SetOf(r).Has(args[0])), nil
}

func setAdd(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "add"); err != nil {
		return value.Value{}, err
	}
	value.SetOf(r).Add(args[0])
	return r, nil
}

func setRemove(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "remove"); err != nil {
		return value.Value{}, err
	}
	return value.Bool(value.SetOf(r).Remove(args[0])), nil
}

func setLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(value.SetOf(r).Len())), nil
}

func setToArray(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Array(append([]value.Value(nil), value.SetOf(r).Items()...)), nil
}

func setUnion(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	out := value.NewSetData()
	for _, v := range value.SetOf(r).Items() {
		out.Add(v)
	}
	for _, v := range value.SetOf(args[0]).Items() {
		out.Add(v)
	}
	return setDataToValue(out), nil
}

func setIntersection(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	other := value.SetOf(args[0])
	out := value.NewSetData()
	for _, v := range value.SetOf(r).Items() {
		if other.Has(v) {
			out.Add(v)
		}
	}
	return setDataToValue(out), nil
}

func setDifference(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	other := value.SetOf(args[0])
	out := value.NewSetData()
	for _, v := range value.SetOf(r).Items() {
		if !other.Has(v) {
			out.Add(v)
		}
	}
	return setDataToValue(out), nil
}

func setIsSubset(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	other := value.SetOf(args[0])
	for _, v := range value.SetOf(r).Items() {
		if !other.Has(v) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func setIsSuperset(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	self := value.SetOf(r)
	for _, v := range value.SetOf(args[0]).Items() {
		if !self.Has(v) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func setDataToValue(s *value.SetData) value.Value {
	return value.Set(append([]value.Value(nil), s.Items()...))
}
