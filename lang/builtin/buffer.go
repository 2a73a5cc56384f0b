package builtin

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/ajokela/lattice-sub005/lang/value"
)

var bufferTable = newTable(map[string]Method{
	"len":       bufferLen,
	"length":    bufferLen,
	"capacity":  bufferCapacity,
	"push":      bufferPush,
	"push_u16":  bufferPushU16,
	"push_u32":  bufferPushU32,
	"read_u8":   bufferReadU8,
	"read_i8":   bufferReadI8,
	"read_u16":  bufferReadU16,
	"read_i16":  bufferReadI16,
	"read_u32":  bufferReadU32,
	"read_i32":  bufferReadI32,
	"read_f32":  bufferReadF32,
	"read_f64":  bufferReadF64,
	"write_u8":  bufferWriteU8,
	"write_u16": bufferWriteU16,
	"write_u32": bufferWriteU32,
	"slice":     bufferSlice,
	"clear":     bufferClear,
	"fill":      bufferFill,
	"resize":    bufferResize,
	"to_string": bufferToString,
	"to_array":  bufferToArray,
	"to_hex":    bufferToHex,
})

func bufferData(r value.Value) *value.BufferData { return value.BufferOf(r) }

func bufferLen(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(len(bufferData(r).Data))), nil
}

func bufferCapacity(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.Int(int64(cap(bufferData(r).Data))), nil
}

func bufferPush(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "push"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	b.Data = append(b.Data, byte(args[0].Int()))
	return r, nil
}

func bufferPushU16(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "push_u16"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(args[0].Int()))
	b.Data = append(b.Data, buf...)
	return r, nil
}

func bufferPushU32(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "push_u32"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(args[0].Int()))
	b.Data = append(b.Data, buf...)
	return r, nil
}

func checkBounds(data []byte, i, n int64) error {
	if i < 0 || i+n > int64(len(data)) {
		return &ErrIndexOutOfBounds{"buffer", i}
	}
	return nil
}

func bufferReadU8(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 1); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(d[i])), nil
}

func bufferReadI8(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 1); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(int8(d[i]))), nil
}

func bufferReadU16(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 2); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(binary.BigEndian.Uint16(d[i:]))), nil
}

func bufferReadI16(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 2); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(int16(binary.BigEndian.Uint16(d[i:])))), nil
}

func bufferReadU32(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 4); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(binary.BigEndian.Uint32(d[i:]))), nil
}

func bufferReadI32(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 4); err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(int32(binary.BigEndian.Uint32(d[i:])))), nil
}

func bufferReadF32(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 4); err != nil {
		return value.Value{}, err
	}
	bits := binary.BigEndian.Uint32(d[i:])
	return value.Float(float64(math.Float32frombits(bits))), nil
}

func bufferReadF64(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 8); err != nil {
		return value.Value{}, err
	}
	bits := binary.BigEndian.Uint64(d[i:])
	return value.Float(math.Float64frombits(bits)), nil
}

func bufferWriteU8(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "write_u8"); err != nil {
		return value.Value{}, err
	}
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 1); err != nil {
		return value.Value{}, err
	}
	d[i] = byte(args[1].Int())
	return r, nil
}

func bufferWriteU16(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "write_u16"); err != nil {
		return value.Value{}, err
	}
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 2); err != nil {
		return value.Value{}, err
	}
	binary.BigEndian.PutUint16(d[i:], uint16(args[1].Int()))
	return r, nil
}

func bufferWriteU32(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "write_u32"); err != nil {
		return value.Value{}, err
	}
	d := bufferData(r).Data
	i := args[0].Int()
	if err := checkBounds(d, i, 4); err != nil {
		return value.Value{}, err
	}
	binary.BigEndian.PutUint32(d[i:], uint32(args[1].Int()))
	return r, nil
}

func bufferSlice(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	i, j := clampSlice(args[0].Int(), args[1].Int(), int64(len(d)))
	return value.Buffer(append([]byte(nil), d[i:j]...)), nil
}

func bufferClear(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "clear"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	b.Data = b.Data[:0]
	return r, nil
}

func bufferFill(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "fill"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	fillByte := byte(args[0].Int())
	for i := range b.Data {
		b.Data[i] = fillByte
	}
	return r, nil
}

func bufferResize(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	if err := value.CheckMutable(r, "resize"); err != nil {
		return value.Value{}, err
	}
	b := bufferData(r)
	n := int(args[0].Int())
	if n < 0 {
		n = 0
	}
	if n <= len(b.Data) {
		b.Data = b.Data[:n]
		return r, nil
	}
	grown := make([]byte, n)
	copy(grown, b.Data)
	b.Data = grown
	return r, nil
}

func bufferToString(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(string(bufferData(r).Data)), nil
}

func bufferToArray(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	d := bufferData(r).Data
	out := make([]value.Value, len(d))
	for i, b := range d {
		out[i] = value.Int(int64(b))
	}
	return value.Array(out), nil
}

func bufferToHex(r value.Value, args []value.Value, _ Invoke) (value.Value, error) {
	return value.String(hex.EncodeToString(bufferData(r).Data)), nil
}
