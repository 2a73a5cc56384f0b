package stdlib

import (
	"testing"

	"github.com/ajokela/lattice-sub005/lang/env"
	"github.com/ajokela/lattice-sub005/lang/value"
)

func callGlobal(t *testing.T, g *env.Environment, name string, args []value.Value) value.Value {
	t.Helper()
	fn, ok := g.Get(name, 0)
	if !ok {
		t.Fatalf("global %q not defined", name)
	}
	cd := value.ClosureOf(fn)
	if cd == nil || !cd.IsNative() {
		t.Fatalf("global %q is not a native closure", name)
	}
	out, err := cd.Native(args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func TestIotaAndDot(t *testing.T) {
	g := env.New()
	Install(g)

	v := callGlobal(t, g, "iota", []value.Value{value.Int(4)})
	elems := value.ArrayOf(v).Elems
	if len(elems) != 4 || elems[3].Int() != 3 {
		t.Fatalf("iota(4) = %v", elems)
	}

	a := callGlobal(t, g, "iota", []value.Value{value.Int(3)})
	b := value.Array([]value.Value{value.Int(1), value.Int(1), value.Int(1)})
	sum := callGlobal(t, g, "dot", []value.Value{a, b})
	if sum.Int() != 3 { // 0*1 + 1*1 + 2*1
		t.Fatalf("dot = %v, want 3", sum.Int())
	}
}

func TestSha3HashIsDeterministic(t *testing.T) {
	g := env.New()
	Install(g)

	h1 := callGlobal(t, g, "sha3_hash", []value.Value{value.String("lattice")})
	h2 := callGlobal(t, g, "sha3_hash", []value.Value{value.String("lattice")})
	if h1.Str() != h2.Str() || len(h1.Str()) != 32 {
		t.Fatalf("sha3_hash not deterministic/32 bytes: %q vs %q", h1.Str(), h2.Str())
	}
}

func TestFalcon512VerifyUnsupported(t *testing.T) {
	g := env.New()
	Install(g)

	fn, _ := g.Get("falcon512_verify", 0)
	cd := value.ClosureOf(fn)
	if _, err := cd.Native(nil); err == nil {
		t.Fatal("expected falcon512_verify to report an error")
	}
}
