package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Equal implements spec.md §4.1 structural equality: numeric kinds
// compare by value with Int/Float cross-kind promotion; strings by
// byte-equality (short-circuiting on interned pointer identity); arrays
// and tuples elementwise; maps by equal-set-of-(key,value); structs by
// name + ordered fields; enums by (enum name, variant name, payloads);
// Range by bounds; channel/closure by pointer identity.
func Equal(a, b Value) bool {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return numericEqual(a, b)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.i == b.i
	case KindString:
		if a.s == b.s {
			return true // interned-pointer shortcut
		}
		return a.Str() == b.Str()
	case KindNil, KindUnit:
		return true
	case KindArray:
		return arrayEqual(ArrayOf(a).Elems, ArrayOf(b).Elems)
	case KindTuple:
		return arrayEqual(TupleOf(a).Elems, TupleOf(b).Elems)
	case KindMap:
		return mapEqual(MapOf(a), MapOf(b))
	case KindSet:
		return setEqual(SetOf(a), SetOf(b))
	case KindStruct:
		return structEqual(StructOf(a), StructOf(b))
	case KindEnum:
		return enumEqual(EnumOf(a), EnumOf(b))
	case KindRange:
		ra, rb := RangeOf(a), RangeOf(b)
		return ra.Start == rb.Start && ra.End == rb.End && ra.Inclusive == rb.Inclusive
	case KindChannel, KindClosure, KindRef, KindBuffer:
		return a.ref == b.ref // pointer/handle identity
	default:
		return false
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

func numericEqual(a, b Value) bool {
	if a.Kind == KindInt && b.Kind == KindInt {
		return a.i == b.i
	}
	af, bf := toFloat(a), toFloat(b)
	return af == bf
}

func toFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func arrayEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func mapEqual(a, b *MapData) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, e := range a.Entries() {
		bv, ok := b.Get(e.Key)
		if !ok || !Equal(e.Val, bv) {
			return false
		}
	}
	return true
}

func setEqual(a, b *SetData) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, v := range a.Items() {
		if !b.Has(v) {
			return false
		}
	}
	return true
}

func structEqual(a, b *StructData) bool {
	if a.Name != b.Name || len(a.FieldNames) != len(b.FieldNames) {
		return false
	}
	for i := range a.FieldNames {
		if a.FieldNames[i] != b.FieldNames[i] {
			return false
		}
		if !Equal(a.FieldValues[i], b.FieldValues[i]) {
			return false
		}
	}
	return true
}

func enumEqual(a, b *EnumData) bool {
	if a.EnumName != b.EnumName || a.VariantName != b.VariantName {
		return false
	}
	return arrayEqual(a.Payload, b.Payload)
}

// Repr renders a value's canonical structural representation, used both
// as the Map/Set dedup key and as the fallback string for `throw v`
// when v is not already a String (spec.md §7).
func Repr(v Value) string {
	var sb strings.Builder
	writeRepr(&sb, v)
	return sb.String()
}

func writeRepr(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) {
			sb.WriteString("NaN")
		} else if math.IsInf(v.f, 1) {
			sb.WriteString("Inf")
		} else if math.IsInf(v.f, -1) {
			sb.WriteString("-Inf")
		} else {
			sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case KindString:
		sb.WriteByte('"')
		sb.WriteString(v.Str())
		sb.WriteByte('"')
	case KindNil:
		sb.WriteString("nil")
	case KindUnit:
		sb.WriteString("()")
	case KindArray:
		writeSeq(sb, '[', ']', ArrayOf(v).Elems)
	case KindTuple:
		writeSeq(sb, '(', ')', TupleOf(v).Elems)
	case KindMap:
		sb.WriteByte('{')
		for i, e := range MapOf(v).Entries() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, e.Key)
			sb.WriteString(": ")
			writeRepr(sb, e.Val)
		}
		sb.WriteByte('}')
	case KindSet:
		sb.WriteString("Set(")
		for i, it := range SetOf(v).Items() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, it)
		}
		sb.WriteByte(')')
	case KindStruct:
		s := StructOf(v)
		sb.WriteString(s.Name)
		sb.WriteString(" { ")
		for i, n := range s.FieldNames {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(n)
			sb.WriteString(": ")
			writeRepr(sb, s.FieldValues[i])
		}
		sb.WriteString(" }")
	case KindEnum:
		e := EnumOf(v)
		sb.WriteString(e.EnumName)
		sb.WriteString("::")
		sb.WriteString(e.VariantName)
		if len(e.Payload) > 0 {
			writeSeq(sb, '(', ')', e.Payload)
		}
	case KindRange:
		r := RangeOf(v)
		sb.WriteString(strconv.FormatInt(r.Start, 10))
		if r.Inclusive {
			sb.WriteString("..=")
		} else {
			sb.WriteString("..")
		}
		sb.WriteString(strconv.FormatInt(r.End, 10))
	case KindBuffer:
		fmt.Fprintf(sb, "Buffer(%d bytes)", len(BufferOf(v).Data))
	case KindRef:
		sb.WriteString("Ref(")
		writeRepr(sb, RefOf(v).Inner)
		sb.WriteByte(')')
	case KindClosure:
		fmt.Fprintf(sb, "<closure %s>", ClosureOf(v).Name)
	case KindChannel:
		fmt.Fprintf(sb, "<channel %s>", ChannelOf(v).ID())
	default:
		sb.WriteString("<?>")
	}
}

func writeSeq(sb *strings.Builder, open, close byte, elems []Value) {
	sb.WriteByte(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeRepr(sb, e)
	}
	sb.WriteByte(close)
}
