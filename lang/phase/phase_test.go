package phase

import (
	"errors"
	"testing"

	"github.com/ajokela/lattice-sub005/lang/value"
)

func TestBondTargets(t *testing.T) {
	r := New()
	r.Bond("a", "b")
	r.Bond("a", "c")
	targets := r.Targets("a")
	if len(targets) != 2 {
		t.Fatalf("Targets(a) = %v; want 2 entries", targets)
	}
}

func TestUnbondRemovesOnlyThatTarget(t *testing.T) {
	r := New()
	r.Bond("a", "b")
	r.Bond("a", "c")
	r.Unbond("a", "b")
	targets := r.Targets("a")
	if len(targets) != 1 || targets[0] != "c" {
		t.Fatalf("Targets(a) after Unbond = %v; want [c]", targets)
	}
}

func TestSeedRejectsInvalidValue(t *testing.T) {
	r := New()
	r.Seed("age", func(v value.Value) error {
		if v.Int() < 0 {
			return errors.New("must be non-negative")
		}
		return nil
	})
	if err := r.CheckSeed("age", value.Int(-1)); err == nil {
		t.Fatal("CheckSeed should reject a negative age")
	}
	if err := r.CheckSeed("age", value.Int(5)); err != nil {
		t.Fatalf("CheckSeed should accept a valid age: %v", err)
	}
}

func TestReactFiresOnNotify(t *testing.T) {
	r := New()
	var seen value.Phase
	r.React("x", func(old, new value.Phase, current value.Value) { seen = new })
	r.Notify("x", value.Fluid, value.Crystal, value.Int(1))
	if seen != value.Crystal {
		t.Fatalf("reaction saw phase %v; want Crystal", seen)
	}
}

func TestUnreactStopsFutureNotifications(t *testing.T) {
	r := New()
	calls := 0
	r.React("x", func(value.Phase, value.Phase, value.Value) { calls++ })
	r.Unreact("x")
	r.Notify("x", value.Fluid, value.Crystal, value.Int(1))
	if calls != 0 {
		t.Fatalf("calls = %d; want 0 after Unreact", calls)
	}
}
