package math

import "testing"

func TestIota(t *testing.T) {
	a := Iota(5)
	if a.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", a.Len())
	}
	for i, v := range a.Data {
		if v != uint64(i) {
			t.Fatalf("Iota(5)[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestSum(t *testing.T) {
	a := NewU64Array(1, 2, 3, 4)
	if got := a.Sum(); got != 10 {
		t.Fatalf("Sum() = %d, want 10", got)
	}
}

func TestDot(t *testing.T) {
	a := NewU64Array(1, 2, 3)
	b := NewU64Array(4, 5, 6)
	if got := Dot(a, b); got != 32 { // 1*4 + 2*5 + 3*6
		t.Fatalf("Dot() = %d, want 32", got)
	}
}

func TestDotTruncatesToShorterLength(t *testing.T) {
	a := NewU64Array(1, 2, 3)
	b := NewU64Array(10, 10)
	if got := Dot(a, b); got != 30 { // 1*10 + 2*10
		t.Fatalf("Dot() = %d, want 30", got)
	}
}
