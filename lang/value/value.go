// Package value implements the Lattice runtime value model: a tagged
// union over 16 kinds, a phase tag that encodes mutability, and a
// region tag that records which allocator owns the payload.
package value

import "fmt"

// Kind identifies which of the 16 runtime variants a Value holds.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindArray
	KindMap
	KindSet
	KindTuple
	KindStruct
	KindEnum
	KindClosure
	KindRange
	KindChannel
	KindBuffer
	KindRef
	KindUnit
	KindNil
	kindCount
)

var kindNames = [kindCount]string{
	KindInt: "Int", KindFloat: "Float", KindBool: "Bool", KindString: "String",
	KindArray: "Array", KindMap: "Map", KindSet: "Set", KindTuple: "Tuple",
	KindStruct: "Struct", KindEnum: "Enum", KindClosure: "Closure", KindRange: "Range",
	KindChannel: "Channel", KindBuffer: "Buffer", KindRef: "Ref", KindUnit: "Unit", KindNil: "Nil",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Phase encodes a value's mutability tag.
type Phase uint8

const (
	// Unphased values carry no phase tag (e.g. freshly built literals
	// before the compiler marks them fluid); treated like Fluid for
	// mutation checks but distinct for channel-send rules.
	Unphased Phase = iota
	// Fluid values are freely mutable.
	Fluid
	// Crystal values reject every mutating built-in.
	Crystal
	// Sublimated is a one-way terminal crystal: it additionally rejects Thaw.
	Sublimated
)

func (p Phase) String() string {
	switch p {
	case Fluid:
		return "fluid"
	case Crystal:
		return "crystal"
	case Sublimated:
		return "sublimated"
	default:
		return "unphased"
	}
}

// Mutable reports whether values at this phase accept mutating built-ins.
func (p Phase) Mutable() bool {
	return p == Fluid || p == Unphased
}

// Region identifies the allocator that owns a Value's payload.
type Region int64

const (
	// RegionNone means the payload was allocated with plain Go allocation
	// (malloc analogue) and is owned directly by the Value.
	RegionNone Region = 0
	// RegionInterned means the payload is a canonical pointer owned by
	// the process-wide string intern table; it must never be freed by a
	// value destructor.
	RegionInterned Region = -1
	// RegionEphemeral means the payload lives in the current statement's
	// bump arena and must be promoted before the arena resets.
	RegionEphemeral Region = -2
)

// Value is the tagged runtime value. Exactly one of the typed fields
// below is meaningful for a given Kind; see the constructors.
type Value struct {
	Kind   Kind
	Phase  Phase
	Region Region

	i    int64       // Int, Bool (0/1), Enum tag cache
	f    float64      // Float
	s    *string      // String payload (possibly interned/ephemeral)
	ref  interface{}  // Array/Map/Set/Tuple/Struct/Enum/Closure/Range/Channel/Buffer/Ref payload
}

// Payload accessors -----------------------------------------------------

// Int returns the Int payload.
func (v Value) Int() int64 { return v.i }

// Float returns the Float payload.
func (v Value) Float() float64 { return v.f }

// Bool returns the Bool payload.
func (v Value) Bool() bool { return v.i != 0 }

// Str returns the String payload.
func (v Value) Str() string {
	if v.s == nil {
		return ""
	}
	return *v.s
}

// StrPtr returns the raw string pointer (used by the intern table and
// the arena promotion walk to test pointer identity).
func (v Value) StrPtr() *string { return v.s }

// Ref returns the opaque payload for composite kinds.
func (v Value) Ref() interface{} { return v.ref }

// Constructors ------------------------------------------------------------

// Int constructs an Int value. Ints are always Unphased scalars; phase
// checks on scalars are no-ops (mutation never applies to them).
func Int(n int64) Value { return Value{Kind: KindInt, Phase: Unphased, i: n} }

// Float constructs a Float value.
func Float(f float64) Value { return Value{Kind: KindFloat, Phase: Unphased, f: f} }

// Bool constructs a Bool value.
func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Kind: KindBool, Phase: Unphased, i: i}
}

// Nil is the singleton Nil value.
var Nil = Value{Kind: KindNil, Phase: Unphased}

// Unit is the singleton Unit value.
var Unit = Value{Kind: KindUnit, Phase: Unphased}

// String constructs a String value over an owned (malloc'd) payload.
func String(s string) Value {
	return Value{Kind: KindString, Phase: Fluid, Region: RegionNone, s: &s}
}

// InternedString constructs a String value whose payload is a canonical
// pointer owned by the intern table.
func InternedString(p *string) Value {
	return Value{Kind: KindString, Phase: Crystal, Region: RegionInterned, s: p}
}

// EphemeralString constructs a String value backed by the per-statement
// bump arena.
func EphemeralString(p *string) Value {
	return Value{Kind: KindString, Phase: Fluid, Region: RegionEphemeral, s: p}
}

// Array, Map, Set, Tuple, Struct, Enum, Closure, Range, Channel, Buffer,
// Ref all wrap a Go-side representation behind the opaque `ref` field;
// see composite.go in this package for their concrete shapes and
// constructors.
func fromRef(k Kind, phase Phase, ref interface{}) Value {
	return Value{Kind: k, Phase: phase, ref: ref}
}

// Truthy implements spec.md §4.1: Nil and Unit are falsy, false is
// falsy, everything else is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil, KindUnit:
		return false
	case KindBool:
		return v.i != 0
	default:
		return true
	}
}

// TypeError is returned by built-ins when a receiver or argument kind
// mismatches what the operation requires.
type TypeError struct {
	Op       string
	Expected string
	Got      Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Expected, e.Got)
}
