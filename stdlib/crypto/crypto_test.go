package crypto

import "testing"

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("lattice"))
	b := Hash([]byte("lattice"))
	if a != b {
		t.Fatalf("Hash not deterministic: %x vs %x", a, b)
	}
	if a == Hash([]byte("Lattice")) {
		t.Fatal("Hash collided on differing input")
	}
}

func TestSHAKE256Length(t *testing.T) {
	out := SHAKE256([]byte("lattice"), 64)
	if len(out) != 64 {
		t.Fatalf("len(SHAKE256(...)) = %d, want 64", len(out))
	}
}

func TestFalcon512VerifyReportsUnsupported(t *testing.T) {
	ok, err := Falcon512Verify(nil, nil, nil)
	if ok || err != ErrUnsupportedScheme {
		t.Fatalf("Falcon512Verify = (%v, %v), want (false, ErrUnsupportedScheme)", ok, err)
	}
}

func TestMLDSAVerifyRejectsGarbage(t *testing.T) {
	if MLDSAVerify([]byte("msg"), []byte("sig"), []byte("not a real key")) {
		t.Fatal("MLDSAVerify accepted a garbage key/signature pair")
	}
}

func TestSLHDSAVerifyRejectsGarbage(t *testing.T) {
	if SLHDSAVerify([]byte("msg"), []byte("sig"), []byte("not a real key")) {
		t.Fatal("SLHDSAVerify accepted a garbage key/signature pair")
	}
}
