package invite

import (
	"strings"
	"testing"
)

func TestNewCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("Failed to generate code: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("Expected %d characters, got %q", CodeLength, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(Alphabet, c) {
				t.Fatalf("Code %q contains character outside the alphabet", code)
			}
		}
	}
}

func TestAlphabetExcludesConfusables(t *testing.T) {
	for _, c := range "0O1I" {
		if strings.ContainsRune(Alphabet, c) {
			t.Errorf("Alphabet must not contain %q", c)
		}
	}
	if len(Alphabet) != 32 {
		t.Errorf("Expected 32 symbols, got %d", len(Alphabet))
	}
}

func TestCodesVary(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("Failed to generate code: %v", err)
		}
		seen[code] = true
	}
	// 32^6 codes; 50 draws colliding down to a single value would mean the
	// generator is broken, not unlucky.
	if len(seen) < 2 {
		t.Error("Generated codes do not vary")
	}
}
