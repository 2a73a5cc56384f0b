package value

// This file defines the Go-side representations for every composite
// Kind. Each lives behind Value.ref so the core Value struct itself
// stays a small, cheaply-copied tagged union (spec.md §3).

// ---- Array --------------------------------------------------------------

// ArrayData is the payload for KindArray.
type ArrayData struct {
	Elems []Value
}

// Array constructs an Array value. New arrays start Fluid.
func Array(elems []Value) Value {
	return fromRef(KindArray, Fluid, &ArrayData{Elems: elems})
}

// ArrayOf returns the *ArrayData payload of v, or nil if v is not an Array.
func ArrayOf(v Value) *ArrayData {
	if v.Kind != KindArray {
		return nil
	}
	a, _ := v.ref.(*ArrayData)
	return a
}

// ---- Tuple ----------------------------------------------------------------

// TupleData is the payload for KindTuple.
type TupleData struct {
	Elems []Value
}

// Tuple constructs a Tuple value. New tuples start Fluid.
func Tuple(elems []Value) Value {
	return fromRef(KindTuple, Fluid, &TupleData{Elems: elems})
}

// TupleOf returns the *TupleData payload of v, or nil.
func TupleOf(v Value) *TupleData {
	if v.Kind != KindTuple {
		return nil
	}
	t, _ := v.ref.(*TupleData)
	return t
}

// ---- Map --------------------------------------------------------------

// MapEntry is one key/value pair of a Map, kept in insertion order so
// keys()/values()/entries() are deterministic.
type MapEntry struct {
	Key   Value
	Val   Value
	Frozen bool // per-key crystallization (spec.md §3 invariants)
}

// MapData is the payload for KindMap. Keys are compared structurally
// (via Repr, see equality.go) since Lattice map keys may be any Value,
// not just strings.
type MapData struct {
	order   []string // insertion-ordered repr keys
	entries map[string]*MapEntry
}

// NewMapData constructs an empty MapData.
func NewMapData() *MapData {
	return &MapData{entries: make(map[string]*MapEntry)}
}

// Map constructs a Map value from key/value pairs.
func Map(pairs []MapEntry) Value {
	m := NewMapData()
	for _, p := range pairs {
		m.Set(p.Key, p.Val)
	}
	return fromRef(KindMap, Fluid, m)
}

// MapOf returns the *MapData payload of v, or nil.
func MapOf(v Value) *MapData {
	if v.Kind != KindMap {
		return nil
	}
	m, _ := v.ref.(*MapData)
	return m
}

// Get returns the value for key and whether it was present.
func (m *MapData) Get(key Value) (Value, bool) {
	e, ok := m.entries[Repr(key)]
	if !ok {
		return Nil, false
	}
	return e.Val, true
}

// Entry returns the backing *MapEntry for key, or nil if absent. Unlike
// Get/Set this exposes the entry itself, so a caller can inspect or set
// its Frozen flag (per-key crystallization, spec.md §3).
func (m *MapData) Entry(key Value) *MapEntry {
	return m.entries[Repr(key)]
}

// Set inserts or overwrites key -> val, preserving insertion order on
// first insert.
func (m *MapData) Set(key, val Value) {
	k := Repr(key)
	if e, ok := m.entries[k]; ok {
		e.Val = val
		return
	}
	m.order = append(m.order, k)
	m.entries[k] = &MapEntry{Key: key, Val: val}
}

// Remove deletes key, reporting whether it was present.
func (m *MapData) Remove(key Value) bool {
	k := Repr(key)
	if _, ok := m.entries[k]; !ok {
		return false
	}
	delete(m.entries, k)
	for i, ok := range m.order {
		if ok == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of entries.
func (m *MapData) Len() int { return len(m.order) }

// Entries returns entries in insertion order.
func (m *MapData) Entries() []*MapEntry {
	out := make([]*MapEntry, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.entries[k])
	}
	return out
}

// ---- Set --------------------------------------------------------------

// SetData is the payload for KindSet, backed by the same repr-keyed
// dedup strategy as MapData.
type SetData struct {
	order []string
	items map[string]Value
}

// NewSetData constructs an empty SetData.
func NewSetData() *SetData {
	return &SetData{items: make(map[string]Value)}
}

// Set constructs a Set value from elements, deduplicating by structural
// equality.
func Set(elems []Value) Value {
	s := NewSetData()
	for _, e := range elems {
		s.Add(e)
	}
	return fromRef(KindSet, Fluid, s)
}

// SetOf returns the *SetData payload of v, or nil.
func SetOf(v Value) *SetData {
	if v.Kind != KindSet {
		return nil
	}
	s, _ := v.ref.(*SetData)
	return s
}

// Add inserts v, reporting whether it was newly added.
func (s *SetData) Add(v Value) bool {
	k := Repr(v)
	if _, ok := s.items[k]; ok {
		return false
	}
	s.order = append(s.order, k)
	s.items[k] = v
	return true
}

// Has reports whether v is a member.
func (s *SetData) Has(v Value) bool {
	_, ok := s.items[Repr(v)]
	return ok
}

// Remove deletes v, reporting whether it was present.
func (s *SetData) Remove(v Value) bool {
	k := Repr(v)
	if _, ok := s.items[k]; !ok {
		return false
	}
	delete(s.items, k)
	for i, ok := range s.order {
		if ok == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the set's cardinality.
func (s *SetData) Len() int { return len(s.order) }

// Items returns elements in insertion order.
func (s *SetData) Items() []Value {
	out := make([]Value, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// ---- Struct --------------------------------------------------------------

// StructData is the payload for KindStruct.
type StructData struct {
	Name         string
	FieldNames   []string
	FieldValues  []Value
	FrozenFields map[string]bool // per-field crystallization, optional
}

// Struct constructs a Struct value.
func Struct(name string, fieldNames []string, fieldValues []Value) Value {
	return fromRef(KindStruct, Fluid, &StructData{Name: name, FieldNames: fieldNames, FieldValues: fieldValues})
}

// StructOf returns the *StructData payload of v, or nil.
func StructOf(v Value) *StructData {
	if v.Kind != KindStruct {
		return nil
	}
	s, _ := v.ref.(*StructData)
	return s
}

// Field returns the value of field name and whether it exists.
func (s *StructData) Field(name string) (Value, bool) {
	for i, n := range s.FieldNames {
		if n == name {
			return s.FieldValues[i], true
		}
	}
	return Nil, false
}

// SetField sets field name to val, reporting whether it existed.
func (s *StructData) SetField(name string, val Value) bool {
	for i, n := range s.FieldNames {
		if n == name {
			s.FieldValues[i] = val
			return true
		}
	}
	return false
}

// FieldFrozen reports whether field name has been individually frozen.
func (s *StructData) FieldFrozen(name string) bool {
	return s.FrozenFields != nil && s.FrozenFields[name]
}

// ---- Enum --------------------------------------------------------------

// EnumData is the payload for KindEnum.
type EnumData struct {
	EnumName    string
	VariantName string
	VariantTag  int64
	Payload     []Value
}

// Enum constructs an Enum value.
func Enum(enumName, variantName string, tag int64, payload []Value) Value {
	return fromRef(KindEnum, Crystal, &EnumData{EnumName: enumName, VariantName: variantName, VariantTag: tag, Payload: payload})
}

// EnumOf returns the *EnumData payload of v, or nil.
func EnumOf(v Value) *EnumData {
	if v.Kind != KindEnum {
		return nil
	}
	e, _ := v.ref.(*EnumData)
	return e
}

// ---- Range --------------------------------------------------------------

// RangeData is the payload for KindRange.
type RangeData struct {
	Start, End int64
	Inclusive  bool
}

// Range constructs a Range value. Ranges are always Crystal: they are
// immutable by construction.
func Range(start, end int64, inclusive bool) Value {
	return fromRef(KindRange, Crystal, &RangeData{Start: start, End: end, Inclusive: inclusive})
}

// RangeOf returns the *RangeData payload of v, or nil.
func RangeOf(v Value) *RangeData {
	if v.Kind != KindRange {
		return nil
	}
	r, _ := v.ref.(*RangeData)
	return r
}

// Len returns the number of integers the range covers.
func (r *RangeData) Len() int64 {
	n := r.End - r.Start
	if r.Inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// Contains reports whether n falls within the range.
func (r *RangeData) Contains(n int64) bool {
	if n < r.Start {
		return false
	}
	if r.Inclusive {
		return n <= r.End
	}
	return n < r.End
}

// ---- Buffer --------------------------------------------------------------

// BufferData is the payload for KindBuffer: a growable byte buffer.
type BufferData struct {
	Data []byte
}

// Buffer constructs a Fluid Buffer value over data; the slice is used
// as is, not copied.
func Buffer(data []byte) Value {
	return fromRef(KindBuffer, Fluid, &BufferData{Data: data})
}

// BufferOf returns the *BufferData payload of v, or nil.
func BufferOf(v Value) *BufferData {
	if v.Kind != KindBuffer {
		return nil
	}
	b, _ := v.ref.(*BufferData)
	return b
}

// ---- Ref --------------------------------------------------------------

// RefData is the payload for KindRef: a reference-counted box over an
// inner value.
type RefData struct {
	Inner    Value
	refcount int32
}

// Ref constructs a Ref boxing inner.
func Ref(inner Value) Value {
	return fromRef(KindRef, Fluid, &RefData{Inner: inner, refcount: 1})
}

// RefOf returns the *RefData payload of v, or nil.
func RefOf(v Value) *RefData {
	if v.Kind != KindRef {
		return nil
	}
	r, _ := v.ref.(*RefData)
	return r
}

// ---- Channel --------------------------------------------------------------

// ChannelHandle is the minimal surface lang/channel.Channel implements.
// Defined here (rather than importing lang/channel) to avoid a package
// cycle: lang/channel needs to hold value.Value items, so the
// dependency must run value -> (nothing), channel -> value.
type ChannelHandle interface {
	Send(v Value) error
	Recv() (Value, bool)
	TryRecv() (Value, bool, bool)
	Close()
	Retain()
	Release()
	ID() string
}

// Channel wraps a ChannelHandle as a Value.
func Channel(h ChannelHandle) Value {
	return fromRef(KindChannel, Crystal, h)
}

// ChannelOf returns the ChannelHandle payload of v, or nil.
func ChannelOf(v Value) ChannelHandle {
	if v.Kind != KindChannel {
		return nil
	}
	h, _ := v.ref.(ChannelHandle)
	return h
}

// ---- Closure --------------------------------------------------------------

// NativeFunc is a host-provided built-in function body.
type NativeFunc func(args []Value) (Value, error)

// CaptureKind distinguishes the two things a closure's capture slot may
// hold (spec.md §9 Open Question 2: model as a tagged union instead of
// overloading a single field).
type CaptureKind uint8

const (
	// CaptureNone means the closure captures nothing (top-level function).
	CaptureNone CaptureKind = iota
	// CaptureUpvalues means Upvalues holds the closure's captured cells.
	CaptureUpvalues
	// CaptureEnv means Env holds a cloned environment snapshot (used by
	// the `scope`/`spawn` concurrency path, which captures by full
	// environment rather than by individual upvalue).
	CaptureEnv
)

// Upvalue is a shared heap cell captured by one or more closures. While
// Open it aliases a stack slot; Close copies the slot's value in and
// severs the alias (spec.md §3 Lifecycles).
type Upvalue struct {
	Open     bool
	Location *Value // non-nil while Open
	Closed   Value
}

// Get returns the upvalue's current value.
func (u *Upvalue) Get() Value {
	if u.Open {
		return *u.Location
	}
	return u.Closed
}

// Set writes v through the upvalue.
func (u *Upvalue) Set(v Value) {
	if u.Open {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close severs the alias to the stack slot, copying the current value
// into the upvalue's own storage.
func (u *Upvalue) Close() {
	if !u.Open {
		return
	}
	u.Closed = *u.Location
	u.Open = false
	u.Location = nil
}

// ClosureData is the payload for KindClosure. A Closure whose Native
// field is non-nil is a host-provided native function (spec.md §3
// invariants); otherwise Chunk holds an opaque *chunk.Chunk (kept as
// interface{} to avoid an import cycle between lang/value and
// lang/chunk, which itself stores Values in its constant pool).
type ClosureData struct {
	Name      string
	Native    NativeFunc
	Chunk     interface{} // *chunk.Chunk when not native
	Arity     int
	Defaults  []Value
	Variadic  bool
	Capture   CaptureKind
	Upvalues  []*Upvalue
	Env       interface{} // opaque *env.Environment when Capture == CaptureEnv
	ParamPhase []Phase     // optional, for phase-dispatch overload sets
}

// IsNative reports whether this closure wraps a host function.
func (c *ClosureData) IsNative() bool { return c.Native != nil }

// Closure constructs a compiled-chunk Closure value.
func Closure(c *ClosureData) Value {
	return fromRef(KindClosure, Crystal, c)
}

// ClosureOf returns the *ClosureData payload of v, or nil.
func ClosureOf(v Value) *ClosureData {
	if v.Kind != KindClosure {
		return nil
	}
	c, _ := v.ref.(*ClosureData)
	return c
}
