package vm

import (
	"errors"
	"fmt"

	"github.com/ajokela/lattice-sub005/lang/value"
)

// Sentinel runtime errors the core raises (spec.md §7). Grounded on the
// teacher's lang/vm/vm.go sentinel-error style (ErrOutOfGas, ErrHalted,
// ErrDivisionByZero, ...), extended to the stack VM's larger error surface.
var (
	ErrOutOfGas          = errors.New("vm: out of gas")
	ErrHalted            = errors.New("vm: already halted")
	ErrDivisionByZero    = errors.New("vm: division by zero")
	ErrModuloByZero      = errors.New("vm: modulo by zero")
	ErrShiftOutOfRange   = errors.New("vm: shift amount out of range")
	ErrInvalidOpcode     = errors.New("vm: invalid opcode")
	ErrStackUnderflow    = errors.New("vm: stack underflow")
	ErrInvalidHexEscape  = errors.New("vm: invalid hex escape")
	ErrChannelSendClosed = errors.New("vm: channel send to closed channel")
)

// TypeMismatch reports an opcode applied to a value of the wrong kind.
type TypeMismatch struct {
	Op       string
	Expected string
	Got      value.Kind
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch in %s: expected %s, got %s", e.Op, e.Expected, e.Got)
}

// IndexOutOfBounds reports an out-of-range array/string/tuple/buffer index.
type IndexOutOfBounds struct {
	Kind  string
	Index int64
}

func (e *IndexOutOfBounds) Error() string {
	return fmt.Sprintf("%s index out of bounds: %d", e.Kind, e.Index)
}

// UndefinedVariable reports a read of an unbound name, optionally with
// an edit-distance "did you mean" suggestion.
type UndefinedVariable struct {
	Name       string
	Suggestion string
}

func (e *UndefinedVariable) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("undefined variable %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// MissingField reports access to a struct field that does not exist.
type MissingField struct {
	Struct string
	Field  string
}

func (e *MissingField) Error() string {
	return fmt.Sprintf("%s has no field %q", e.Struct, e.Field)
}

// WrongArity reports a call with the wrong number of arguments.
type WrongArity struct {
	Name     string
	Expected int
	Got      int
}

func (e *WrongArity) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Name, e.Expected, e.Got)
}

// PressureViolation reports push/pop against a variable under a
// pressure (capacity) constraint.
type PressureViolation struct {
	Name string
	Op   string
}

func (e *PressureViolation) Error() string {
	return fmt.Sprintf("pressure violation: cannot %s %q", e.Op, e.Name)
}

// InvalidCast reports a failed CHECK_TYPE/CHECK_RETURN_TYPE assertion.
type InvalidCast struct {
	Want value.Kind
	Got  value.Kind
}

func (e *InvalidCast) Error() string {
	return fmt.Sprintf("invalid cast: expected %s, got %s", e.Want, e.Got)
}

// MethodNotFound reports dispatch step 5 (spec.md §4.9): no PIC hit,
// no built-in, no callable field, no global TypeName::method.
type MethodNotFound struct {
	Kind       value.Kind
	Method     string
	Suggestion string
}

func (e *MethodNotFound) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s has no method %q (did you mean %q?)", e.Kind, e.Method, e.Suggestion)
	}
	return fmt.Sprintf("%s has no method %q", e.Kind, e.Method)
}
