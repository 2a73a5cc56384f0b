// Package chunk implements the Lattice bytecode chunk (spec.md §4.7):
// the code buffer, constant pool, line table, and the auxiliary tables
// the dispatch loop needs for diagnostics and PIC lookup. Grounded on
// the teacher's lang/vm/opcodes.go table-driven opcode metadata and
// its 4-byte fixed-width / wide-immediate encoding, extended from the
// register VM's ~45 opcodes to the stack VM's larger set.
package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/ajokela/lattice-sub005/lang/value"
)

// PICSlot is one entry of a chunk's per-call-site inline cache table
// (spec.md §4.8). The cache logic itself lives in lang/pic; Chunk only
// owns the backing storage indexed by bytecode offset.
type PICSlot struct {
	TypeTag    value.Kind
	MethodHash uint64
	HandlerID  int32
}

// Chunk is one compiled unit: a function body, a module top level, or
// a REPL statement group.
type Chunk struct {
	Name string

	Code []byte

	Constants []value.Value
	// ConstHashes parallels Constants; populated only for entries used
	// as global-name lookups (spec.md §4.7: "parallel pre-computed hash
	// array for global-name constants").
	ConstHashes []uint64

	// Lines[i] is the source line for the instruction starting at Code[i]
	// (only populated at instruction-start offsets; sparse elsewhere).
	Lines []int

	// LocalNames maps a local slot index to its source name, for
	// diagnostics and the `find-similar-name` suggestion path.
	LocalNames []string

	// ParamPhase holds each parameter's required phase tag, when the
	// function declares phase-dispatch constraints; nil otherwise.
	ParamPhase []value.Phase

	// Defaults holds default argument values, one per parameter that has
	// one (aligned to the tail of the parameter list); nil if none.
	Defaults []value.Value

	Arity    int
	Variadic bool

	// Exports lists the names a module chunk makes visible to importers;
	// nil for non-module chunks.
	Exports []string

	// PIC is indexed by bytecode offset for every instruction that
	// invokes a method (OpInvoke and friends); offsets with no PIC slot
	// are absent from the map.
	PIC map[int]*PICSlot
}

// New constructs an empty Chunk ready for a compiler to append to.
func New(name string) *Chunk {
	return &Chunk{Name: name, PIC: make(map[int]*PICSlot)}
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	c.ConstHashes = append(c.ConstHashes, 0)
	return len(c.Constants) - 1
}

// AddNamedConstant appends v with a pre-computed djb2 hash, for
// constants used as global-variable or method names.
func (c *Chunk) AddNamedConstant(v value.Value, hash uint64) int {
	idx := c.AddConstant(v)
	c.ConstHashes[idx] = hash
	return idx
}

// Emit appends a 4-byte instruction: opcode plus a, b, c operand bytes.
func (c *Chunk) Emit(op Opcode, a, b, cc byte, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), a, b, cc)
	c.growLines(offset, line)
	return offset
}

// EmitWide appends a 4-byte instruction in [op][a][imm16] form.
func (c *Chunk) EmitWide(op Opcode, a byte, imm uint16, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op), a, byte(imm>>8), byte(imm))
	c.growLines(offset, line)
	return offset
}

func (c *Chunk) growLines(offset, line int) {
	for len(c.Lines) <= offset {
		c.Lines = append(c.Lines, 0)
	}
	c.Lines[offset] = line
}

// LineAt returns the source line recorded for the instruction starting
// at offset, or 0 if none was recorded.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// PICSlotAt returns (creating if absent) the PIC slot for a bytecode offset.
func (c *Chunk) PICSlotAt(offset int) *PICSlot {
	if c.PIC == nil {
		c.PIC = make(map[int]*PICSlot)
	}
	s, ok := c.PIC[offset]
	if !ok {
		s = &PICSlot{}
		c.PIC[offset] = s
	}
	return s
}

// ReadWideImm decodes the 16-bit immediate of the instruction at offset.
func (c *Chunk) ReadWideImm(offset int) uint16 {
	return binary.BigEndian.Uint16(c.Code[offset+2 : offset+4])
}

// Disassemble renders the entire chunk as human-readable text, in the
// same shape as the teacher's vm.Disassemble: one line per instruction,
// offset, mnemonic, and decoded operands.
func Disassemble(c *Chunk) string {
	out := fmt.Sprintf("== %s ==\n", c.Name)
	offset := 0
	for offset < len(c.Code) {
		op := Opcode(c.Code[offset])
		line := c.LineAt(offset)
		if op.IsWideImmediate() {
			a := c.Code[offset+1]
			imm := c.ReadWideImm(offset)
			out += fmt.Sprintf("%04d line%4d %-22s a=%d imm=%d\n", offset, line, op, a, imm)
		} else {
			a, b, cc := c.Code[offset+1], c.Code[offset+2], c.Code[offset+3]
			out += fmt.Sprintf("%04d line%4d %-22s a=%d b=%d c=%d\n", offset, line, op, a, b, cc)
		}
		offset += 4
	}
	return out
}
