package chunk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ajokela/lattice-sub005/lang/value"
)

// Magic and Version identify a serialized chunk file (spec.md §6:
// "magic, version, constant pool, code buffer length-prefixed, line
// table, local-name table, export-name list, default-value table,
// parameter-phase bytes").
const (
	Magic   uint32 = 0x4c415454 // "LATT"
	Version uint16 = 1
)

// ErrBadMagic is returned by Decode when the file does not start with Magic.
var ErrBadMagic = errors.New("chunk: bad magic number")

// ErrUnsupportedVersion is returned by Decode for a version newer than
// this implementation understands.
var ErrUnsupportedVersion = errors.New("chunk: unsupported version")

const (
	constKindInt uint8 = iota
	constKindFloat
	constKindBool
	constKindString
	constKindNil
	constKindUnit
)

// Encode writes c in the on-disk chunk format.
func Encode(w io.Writer, c *Chunk) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.BigEndian, Magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, Version); err != nil {
		return err
	}

	if err := writeString(bw, c.Name); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, int32(c.Arity)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, c.Variadic); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.Constants))); err != nil {
		return err
	}
	for i, k := range c.Constants {
		if err := encodeConstant(bw, k); err != nil {
			return err
		}
		var h uint64
		if i < len(c.ConstHashes) {
			h = c.ConstHashes[i]
		}
		if err := binary.Write(bw, binary.BigEndian, h); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.Code))); err != nil {
		return err
	}
	if _, err := bw.Write(c.Code); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.Lines))); err != nil {
		return err
	}
	for _, l := range c.Lines {
		if err := binary.Write(bw, binary.BigEndian, int32(l)); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.LocalNames))); err != nil {
		return err
	}
	for _, n := range c.LocalNames {
		if err := writeString(bw, n); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.Exports))); err != nil {
		return err
	}
	for _, n := range c.Exports {
		if err := writeString(bw, n); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.Defaults))); err != nil {
		return err
	}
	for _, d := range c.Defaults {
		if err := encodeConstant(bw, d); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.BigEndian, int32(len(c.ParamPhase))); err != nil {
		return err
	}
	for _, p := range c.ParamPhase {
		if err := binary.Write(bw, binary.BigEndian, byte(p)); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Decode reads a chunk previously written by Encode.
func Decode(r io.Reader) (*Chunk, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version > Version {
		return nil, ErrUnsupportedVersion
	}

	c := New("")
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	c.Name = name

	var arity int32
	if err := binary.Read(r, binary.BigEndian, &arity); err != nil {
		return nil, err
	}
	c.Arity = int(arity)
	if err := binary.Read(r, binary.BigEndian, &c.Variadic); err != nil {
		return nil, err
	}

	var nConst int32
	if err := binary.Read(r, binary.BigEndian, &nConst); err != nil {
		return nil, err
	}
	c.Constants = make([]value.Value, nConst)
	c.ConstHashes = make([]uint64, nConst)
	for i := range c.Constants {
		v, err := decodeConstant(r)
		if err != nil {
			return nil, err
		}
		c.Constants[i] = v
		if err := binary.Read(r, binary.BigEndian, &c.ConstHashes[i]); err != nil {
			return nil, err
		}
	}

	var codeLen int32
	if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
		return nil, err
	}
	c.Code = make([]byte, codeLen)
	if _, err := io.ReadFull(r, c.Code); err != nil {
		return nil, err
	}

	var nLines int32
	if err := binary.Read(r, binary.BigEndian, &nLines); err != nil {
		return nil, err
	}
	c.Lines = make([]int, nLines)
	for i := range c.Lines {
		var l int32
		if err := binary.Read(r, binary.BigEndian, &l); err != nil {
			return nil, err
		}
		c.Lines[i] = int(l)
	}

	var nLocals int32
	if err := binary.Read(r, binary.BigEndian, &nLocals); err != nil {
		return nil, err
	}
	c.LocalNames = make([]string, nLocals)
	for i := range c.LocalNames {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		c.LocalNames[i] = s
	}

	var nExports int32
	if err := binary.Read(r, binary.BigEndian, &nExports); err != nil {
		return nil, err
	}
	c.Exports = make([]string, nExports)
	for i := range c.Exports {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		c.Exports[i] = s
	}

	var nDefaults int32
	if err := binary.Read(r, binary.BigEndian, &nDefaults); err != nil {
		return nil, err
	}
	c.Defaults = make([]value.Value, nDefaults)
	for i := range c.Defaults {
		v, err := decodeConstant(r)
		if err != nil {
			return nil, err
		}
		c.Defaults[i] = v
	}

	var nPhase int32
	if err := binary.Read(r, binary.BigEndian, &nPhase); err != nil {
		return nil, err
	}
	c.ParamPhase = make([]value.Phase, nPhase)
	for i := range c.ParamPhase {
		var b byte
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return nil, err
		}
		c.ParamPhase[i] = value.Phase(b)
	}

	return c, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func encodeConstant(w io.Writer, v value.Value) error {
	switch v.Kind {
	case value.KindInt:
		if err := binary.Write(w, binary.BigEndian, constKindInt); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Int())
	case value.KindFloat:
		if err := binary.Write(w, binary.BigEndian, constKindFloat); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Float())
	case value.KindBool:
		if err := binary.Write(w, binary.BigEndian, constKindBool); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Bool())
	case value.KindString:
		if err := binary.Write(w, binary.BigEndian, constKindString); err != nil {
			return err
		}
		return writeString(w, v.Str())
	case value.KindNil:
		return binary.Write(w, binary.BigEndian, constKindNil)
	case value.KindUnit:
		return binary.Write(w, binary.BigEndian, constKindUnit)
	default:
		return fmt.Errorf("chunk: constant kind %s is not serializable", v.Kind)
	}
}

func decodeConstant(r io.Reader) (value.Value, error) {
	var kind uint8
	if err := binary.Read(r, binary.BigEndian, &kind); err != nil {
		return value.Value{}, err
	}
	switch kind {
	case constKindInt:
		var n int64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil
	case constKindFloat:
		var f float64
		if err := binary.Read(r, binary.BigEndian, &f); err != nil {
			return value.Value{}, err
		}
		return value.Float(f), nil
	case constKindBool:
		var b bool
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	case constKindString:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case constKindNil:
		return value.Nil, nil
	case constKindUnit:
		return value.Unit, nil
	default:
		return value.Value{}, fmt.Errorf("chunk: unknown constant kind tag %d", kind)
	}
}
