package chunk

import (
	"bytes"
	"testing"

	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestEmitAndDisassemble(t *testing.T) {
	c := New("main")
	idx := c.AddConstant(value.Int(3))
	c.EmitWide(OpConstant16, 0, uint16(idx), 1)
	c.Emit(OpAdd, 0, 0, 0, 1)
	c.Emit(OpHalt, 0, 0, 0, 1)

	out := Disassemble(c)
	if !bytes.Contains([]byte(out), []byte("CONSTANT_16")) {
		t.Fatalf("disassembly missing CONSTANT_16:\n%s", out)
	}
	if !bytes.Contains([]byte(out), []byte("HALT")) {
		t.Fatalf("disassembly missing HALT:\n%s", out)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := New("fn")
	c.Arity = 2
	c.Variadic = true
	c.AddConstant(value.Int(42))
	c.AddConstant(value.String("hello"))
	c.Emit(OpAdd, 1, 2, 3, 7)
	c.LocalNames = []string{"a", "b"}
	c.Exports = []string{"a"}
	c.Defaults = []value.Value{value.Int(1)}
	c.ParamPhase = []value.Phase{value.Fluid, value.Crystal}

	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "fn" || got.Arity != 2 || !got.Variadic {
		t.Fatalf("round-trip header mismatch: %+v", got)
	}
	if len(got.Constants) != 2 || got.Constants[0].Int() != 42 || got.Constants[1].Str() != "hello" {
		t.Fatalf("round-trip constants mismatch: %+v", got.Constants)
	}
	if len(got.Code) != 4 || got.Code[0] != byte(OpAdd) {
		t.Fatalf("round-trip code mismatch: %v", got.Code)
	}
	if len(got.LocalNames) != 2 || got.LocalNames[1] != "b" {
		t.Fatalf("round-trip local names mismatch: %v", got.LocalNames)
	}
	if len(got.ParamPhase) != 2 || got.ParamPhase[1] != value.Crystal {
		t.Fatalf("round-trip param phase mismatch: %v", got.ParamPhase)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 0, 1})
	if _, err := Decode(buf); err != ErrBadMagic {
		t.Fatalf("Decode with bad magic = %v; want ErrBadMagic", err)
	}
}
