package builtin

import "github.com/ajokela/lattice-sub005/lang/value"

var enumTable = newTable(map[string]Method{
	"tag":          enumTag,
	"variant_name": enumVariantName,
	"enum_name":    enumEnumName,
	"payload":      enumPayload,
	"is_variant":   enumIsVariant,
})

func enumTag(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(value.EnumOf(r).VariantTag), nil
}

func enumVariantName(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(value.EnumOf(r).VariantName), nil
}

func enumEnumName(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(value.EnumOf(r).EnumName), nil
}

func enumPayload(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Array(append([]value.Value(nil), value.EnumOf(r).Payload...)), nil
}

func enumIsVariant(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(value.EnumOf(r).VariantName == args[0].Str()), nil
}

var rangeTable = newTable(map[string]Method{
	"len":      rangeLen,
	"length":   rangeLen,
	"contains": rangeContains,
	"to_array": rangeToArray,
})

func rangeLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(value.RangeOf(r).Len()), nil
}

func rangeContains(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Bool(value.RangeOf(r).Contains(args[0].Int())), nil
}

func rangeToArray(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	rg := value.RangeOf(r)
	n := rg.Len()
	out := make([]value.Value, 0, n)
	for i := rg.Start; rg.Contains(i); i++ {
		out = append(out, value.Int(i))
	}
	return value.Array(out), nil
}

var refTable = newTable(map[string]Method{
	"get":        refGet,
	"deref":      refGet,
	"set":        refSet,
	"inner_type": refInnerType,
})

func refGet(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.RefOf(r).Inner, nil
}

func refSet(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "set"); err != nil {
		return value.Value{}, err
	}
	value.RefOf(r).Inner = args[0]
	return value.Unit, nil
}

func refInnerType(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(value.RefOf(r).Inner.Kind.String()), nil
}

var channelTable = newTable(map[string]Method{
	"send":  channelSend,
	"recv":  channelRecv,
	"close": channelClose,
})

func channelSend(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	h := value.ChannelOf(r)
	if err := h.Send(args[0]); err != nil {
		return value.Value{}, err
	}
	return value.Unit, nil
}

func channelRecv(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	h := value.ChannelOf(r)
	v, ok := h.Recv()
	return value.Tuple([]value.Value{v, value.Bool(ok)}), nil
}

func channelClose(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	value.ChannelOf(r).Close()
	return value.Unit, nil
}
