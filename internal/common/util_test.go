package common

import (
	"encoding/hex"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

// ---------- MakeRandDigits ----------

func TestMakeRandDigits_OnlyDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := MakeRandDigits(6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(s) != 6 {
			t.Fatalf("expected 6 digits, got %q", s)
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit %q in %q", r, s)
			}
		}
	}
}
