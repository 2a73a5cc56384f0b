// Package pic implements the Lattice polymorphic inline cache (spec.md
// §4.8, §9 "Polymorphic dispatch"): per-call-site caching of (receiver
// type, method-name hash) -> resolved handler id, backed by
// lang/chunk's PICSlot storage.
package pic

import (
	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/value"
)

// NotBuiltin is the sentinel handler id stored when full resolution
// proved no built-in matches the method name for this receiver kind —
// caching the miss avoids re-running resolution on every call.
const NotBuiltin int32 = -1

// miss is the zero value of an unpopulated slot.
const miss int32 = 0

// Hash computes the djb2 hash of a method name, the same function
// spec.md §9 calls out ("pre-computed hash of the method name (djb2 or
// equivalent)").
func Hash(name string) uint64 {
	var h uint64 = 5381
	for i := 0; i < len(name); i++ {
		h = h*33 + uint64(name[i])
	}
	return h
}

// Lookup consults slot for receiver kind typeTag and method hash
// methodHash. It returns (handlerID, true) on a cache hit — including a
// hit that resolved to NotBuiltin — or (0, false) on a miss (slot empty
// or holds a different type/hash than requested, i.e. the call site is
// polymorphic and this slot no longer applies).
func Lookup(slot *chunk.PICSlot, typeTag value.Kind, methodHash uint64) (int32, bool) {
	if slot == nil || slot.HandlerID == miss {
		return 0, false
	}
	if slot.TypeTag != typeTag || slot.MethodHash != methodHash {
		return 0, false
	}
	return slot.HandlerID, true
}

// Populate records the resolution outcome for a call site, monomorphic
// by construction: a later call with a different typeTag simply misses
// and re-populates (spec.md does not require polymorphic N-way slots,
// only single-entry-per-site caching).
func Populate(slot *chunk.PICSlot, typeTag value.Kind, methodHash uint64, handlerID int32) {
	slot.TypeTag = typeTag
	slot.MethodHash = methodHash
	slot.HandlerID = handlerID
}
