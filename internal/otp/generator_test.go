package otp

import (
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy pool exhausted")
}

func TestGenerateLengthAndDigits(t *testing.T) {
	g := &Generator{}
	for _, length := range []int{4, 6, 8} {
		code, err := g.Generate(length)
		if err != nil {
			t.Fatalf("Generate(%d): %v", length, err)
		}
		if len(code) != length {
			t.Fatalf("Generate(%d) = %q, want %d digits", length, code, length)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("Generate(%d) = %q contains non-digit", length, code)
			}
		}
	}
}

func TestGenerateNotConstant(t *testing.T) {
	g := &Generator{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := g.Generate(6)
		if err != nil {
			t.Fatal(err)
		}
		seen[code] = true
	}
	// 50 extracciones de un espacio de 10^6: repetir todas sería absurdo.
	if len(seen) < 2 {
		t.Fatalf("50 draws produced %d distinct codes", len(seen))
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	g := &Generator{}
	for _, length := range []int{0, -1} {
		if _, err := g.Generate(length); err == nil {
			t.Fatalf("Generate(%d) should fail", length)
		}
	}
}

func TestGeneratePropagatesRandomnessFailure(t *testing.T) {
	g := &Generator{Rand: failingReader{}}
	_, err := g.Generate(6)
	if !errors.Is(err, ErrRandomnessUnavailable) {
		t.Fatalf("want ErrRandomnessUnavailable, got %v", err)
	}
}
