package env

import (
	"testing"

	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestDefineAndGet(t *testing.T) {
	e := New()
	e.Define("x", value.Int(42))
	v, ok := e.Get("x", 0)
	if !ok || v.Int() != 42 {
		t.Fatalf("Get(x) = %v, %v; want 42, true", v, ok)
	}
}

func TestShadowing(t *testing.T) {
	e := New()
	e.Define("x", value.Int(1))
	e.PushScope()
	e.Define("x", value.Int(2))
	v, _ := e.Get("x", 0)
	if v.Int() != 2 {
		t.Fatalf("inner x = %d; want 2", v.Int())
	}
	e.PopScope()
	v, _ = e.Get("x", 0)
	if v.Int() != 1 {
		t.Fatalf("outer x = %d; want 1", v.Int())
	}
}

func TestSetUpdatesOwningScope(t *testing.T) {
	e := New()
	e.Define("x", value.Int(1))
	e.PushScope()
	if !e.Set("x", value.Int(9)) {
		t.Fatal("Set(x) returned false")
	}
	e.PopScope()
	v, _ := e.Get("x", 0)
	if v.Int() != 9 {
		t.Fatalf("x = %d; want 9", v.Int())
	}
}

func TestSetUndefinedFails(t *testing.T) {
	e := New()
	if e.Set("nope", value.Int(1)) {
		t.Fatal("Set on undefined name should fail")
	}
}

func TestRemove(t *testing.T) {
	e := New()
	e.Define("x", value.Int(1))
	if !e.Remove("x") {
		t.Fatal("Remove(x) should succeed")
	}
	if _, ok := e.Get("x", 0); ok {
		t.Fatal("x should be gone after Remove")
	}
}

func TestFindSimilarName(t *testing.T) {
	e := New()
	e.Define("counter", value.Int(1))
	name, ok := e.FindSimilarName("countr")
	if !ok || name != "counter" {
		t.Fatalf("FindSimilarName(countr) = %q, %v; want counter, true", name, ok)
	}
	if _, ok := e.FindSimilarName("totally_unrelated_banana"); ok {
		t.Fatal("FindSimilarName should not suggest an unrelated name")
	}
}

func TestCloneDeepIsIndependent(t *testing.T) {
	e := New()
	e.Define("arr", value.Array([]value.Value{value.Int(1), value.Int(2)}))
	clone := e.CloneDeep(nil)
	orig, _ := e.Get("arr", 0)
	cloned, _ := clone.Get("arr", 0)
	if !value.Equal(orig, cloned) {
		t.Fatal("clone should be structurally equal to original")
	}
}
