package pic

import (
	"testing"

	"github.com/ajokela/lattice-sub005/lang/chunk"
	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestHashIsDeterministic(t *testing.T) {
	if Hash("push") != Hash("push") {
		t.Fatal("Hash should be deterministic")
	}
	if Hash("push") == Hash("pop") {
		t.Fatal("Hash should differ for different names (in practice, not guaranteed, but true for this pair)")
	}
}

func TestLookupMissOnEmptySlot(t *testing.T) {
	slot := &chunk.PICSlot{}
	if _, ok := Lookup(slot, value.KindArray, Hash("push")); ok {
		t.Fatal("Lookup on empty slot should miss")
	}
}

func TestPopulateThenHit(t *testing.T) {
	slot := &chunk.PICSlot{}
	h := Hash("push")
	Populate(slot, value.KindArray, h, 7)
	id, ok := Lookup(slot, value.KindArray, h)
	if !ok || id != 7 {
		t.Fatalf("Lookup after Populate = %v, %v; want 7, true", id, ok)
	}
}

func TestLookupMissOnTypeChange(t *testing.T) {
	slot := &chunk.PICSlot{}
	h := Hash("push")
	Populate(slot, value.KindArray, h, 7)
	if _, ok := Lookup(slot, value.KindMap, h); ok {
		t.Fatal("Lookup with a different receiver kind should miss")
	}
}

func TestNotBuiltinCachesAsHit(t *testing.T) {
	slot := &chunk.PICSlot{}
	h := Hash("frobnicate")
	Populate(slot, value.KindArray, h, NotBuiltin)
	id, ok := Lookup(slot, value.KindArray, h)
	if !ok || id != NotBuiltin {
		t.Fatalf("Lookup of a cached not-builtin miss = %v, %v; want NotBuiltin, true", id, ok)
	}
}
