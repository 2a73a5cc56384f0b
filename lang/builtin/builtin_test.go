package builtin

import (
	"testing"

	"github.com/ajokela/lattice-sub005/lang/value"
)

func noInvoke(closure value.Value, args []value.Value) (value.Value, error) {
	return value.Value{}, nil
}

func TestArraySort(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(3), value.Int(1), value.Int(2)})
	v, ok, err := Call(arr, "sort", nil, noInvoke)
	if !ok || err != nil {
		t.Fatalf("Call(sort) ok=%v err=%v", ok, err)
	}
	got := value.ArrayOf(v).Elems
	if got[0].Int() != 1 || got[1].Int() != 2 || got[2].Int() != 3 {
		t.Fatalf("sort = %v; want [1 2 3]", got)
	}
}

func TestArrayPushRejectsCrystal(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1)})
	if err := value.Freeze(&arr); err != nil {
		t.Fatal(err)
	}
	_, _, err := Call(arr, "push", []value.Value{value.Int(2)}, noInvoke)
	if err == nil {
		t.Fatal("push on a frozen array should error")
	}
}

func TestArrayIndexOutOfBoundsMessage(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	_, _, err := Call(arr, "remove_at", []value.Value{value.Int(5)}, noInvoke)
	if err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
	if got := err.Error(); got != "array index out of bounds: 5" {
		t.Fatalf("error message = %q", got)
	}
}

func TestMapSetOnCrystalErrors(t *testing.T) {
	m := value.Map([]value.MapEntry{{Key: value.String("a"), Val: value.Int(1)}})
	if err := value.Freeze(&m); err != nil {
		t.Fatal(err)
	}
	_, _, err := Call(m, "set", []value.Value{value.String("b"), value.Int(2)}, noInvoke)
	if err == nil {
		t.Fatal("set on a frozen map should error")
	}
	if got := err.Error(); got != "cannot set on crystal map" {
		t.Fatalf("error message = %q; want \"cannot set on crystal map\"", got)
	}
}

func TestMapSetOnFrozenKeyErrors(t *testing.T) {
	m := value.Map([]value.MapEntry{{Key: value.String("a"), Val: value.Int(1)}})
	value.MapOf(m).Entry(value.String("a")).Frozen = true

	_, _, err := Call(m, "set", []value.Value{value.String("a"), value.Int(2)}, noInvoke)
	if err == nil {
		t.Fatal("set on an individually frozen key should error")
	}

	// An unfrozen key in the same map is unaffected.
	_, _, err = Call(m, "set", []value.Value{value.String("b"), value.Int(9)}, noInvoke)
	if err != nil {
		t.Fatalf("set on a fresh key should succeed, got %v", err)
	}
}

func TestMapRemoveOnFrozenKeyErrors(t *testing.T) {
	m := value.Map([]value.MapEntry{{Key: value.String("a"), Val: value.Int(1)}})
	value.MapOf(m).Entry(value.String("a")).Frozen = true

	_, _, err := Call(m, "remove", []value.Value{value.String("a")}, noInvoke)
	if err == nil {
		t.Fatal("remove on an individually frozen key should error")
	}
}

func TestStringMethods(t *testing.T) {
	s := value.String("Hello World")
	v, _, _ := Call(s, "to_lower", nil, noInvoke)
	if v.Str() != "hello world" {
		t.Fatalf("to_lower = %q", v.Str())
	}
	v, _, _ = Call(s, "snake_case", nil, noInvoke)
	if v.Str() != "hello_world" {
		t.Fatalf("snake_case = %q", v.Str())
	}
}

func TestSetOperations(t *testing.T) {
	a := value.Set([]value.Value{value.Int(1), value.Int(2)})
	b := value.Set([]value.Value{value.Int(2), value.Int(3)})
	v, _, _ := Call(a, "union", []value.Value{b}, noInvoke)
	if value.SetOf(v).Len() != 3 {
		t.Fatalf("union len = %d; want 3", value.SetOf(v).Len())
	}
	v, _, _ = Call(a, "intersection", []value.Value{b}, noInvoke)
	if value.SetOf(v).Len() != 1 {
		t.Fatalf("intersection len = %d; want 1", value.SetOf(v).Len())
	}
}

func TestResolveUnknownMethodMisses(t *testing.T) {
	if _, ok := Resolve(value.KindArray, "frobnicate"); ok {
		t.Fatal("Resolve should report not-found for an unknown method")
	}
}

func TestFindSimilarMethod(t *testing.T) {
	name, ok := FindSimilarMethod(value.KindArray, "pus")
	if !ok || name != "push" {
		t.Fatalf("FindSimilarMethod(pus) = %q, %v; want push, true", name, ok)
	}
}

func TestRefProxiesArrayMethods(t *testing.T) {
	inner := value.Array([]value.Value{value.Int(1), value.Int(2)})
	r := value.Ref(inner)
	v, ok, err := Call(r, "len", nil, noInvoke)
	if !ok || err != nil {
		t.Fatalf("Call through Ref ok=%v err=%v", ok, err)
	}
	if v.Int() != 2 {
		t.Fatalf("len through Ref = %d; want 2", v.Int())
	}
}
