package state

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestGenerator_Token(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		token, err := NewGenerator(nil).Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("Token() not raw url base64: %v", err)
		}
		if len(raw) != TokenBytes {
			t.Errorf("Token() decoded length = %d, want %d", len(raw), TokenBytes)
		}
	})

	t.Run("token_uniqueness", func(t *testing.T) {
		g := NewGenerator(nil)
		token1, _ := g.Token()
		token2, _ := g.Token()
		if token1 == token2 {
			t.Error("Token() tokens should be unique")
		}
	})

	t.Run("deterministic_source", func(t *testing.T) {
		src := bytes.NewReader(bytes.Repeat([]byte{0xAB}, TokenBytes))
		token, err := NewGenerator(src).Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		want := base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, TokenBytes))
		if token != want {
			t.Errorf("Token() = %q, want %q", token, want)
		}
	})

	t.Run("short_source", func(t *testing.T) {
		src := bytes.NewReader([]byte{1, 2, 3})
		_, err := NewGenerator(src).Token()
		if !errors.Is(err, ErrShortRead) {
			t.Errorf("Token() error = %v, want %v", err, ErrShortRead)
		}
	})

	t.Run("failing_source", func(t *testing.T) {
		boom := errors.New("entropy pool unavailable")
		_, err := NewGenerator(failingReader{boom}).Token()
		if !errors.Is(err, boom) {
			t.Errorf("Token() error = %v, want %v", err, boom)
		}
	})
}

func TestGenerator_Verifier(t *testing.T) {
	v, err := NewGenerator(nil).Verifier()
	if err != nil {
		t.Fatalf("Verifier() error = %v", err)
	}
	// RFC 7636 requires 43-128 characters from the unreserved set
	if len(v) < 43 || len(v) > 128 {
		t.Errorf("Verifier() length = %d, want 43..128", len(v))
	}
	if strings.ContainsAny(v, "+/=") {
		t.Errorf("Verifier() = %q contains characters outside the unreserved set", v)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		got      string
		want     bool
	}{
		{name: "identical", expected: "xyz123", got: "xyz123", want: true},
		{name: "different", expected: "xyz123", got: "WRONG", want: false},
		{name: "prefix", expected: "xyz123", got: "xyz12", want: false},
		{name: "case differs", expected: "xyz123", got: "XYZ123", want: false},
		{name: "missing", expected: "xyz123", got: "", want: false},
		{name: "empty expected", expected: "", got: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.expected, tt.got); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.expected, tt.got, got, tt.want)
			}
		})
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
