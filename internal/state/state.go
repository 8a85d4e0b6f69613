// Package state generates and compares the anti-forgery values carried through an OAuth2 redirect
package state

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// TokenBytes is the number of random bytes behind each state token (256 bits)
const TokenBytes = 32

// ErrShortRead indicates the randomness source returned fewer bytes than requested
var ErrShortRead = errors.New("short read from randomness source")

// Generator draws state tokens and PKCE verifiers from a randomness source
type Generator struct {
	source io.Reader
}

// NewGenerator creates a generator over source; a nil source means crypto/rand
func NewGenerator(source io.Reader) *Generator {
	if source == nil {
		source = rand.Reader
	}
	return &Generator{source: source}
}

// Token returns a new URL-safe state token
func (g *Generator) Token() (string, error) {
	return g.random("state token")
}

// Verifier returns a new PKCE code verifier (43 characters, RFC 7636 section 4.1)
func (g *Generator) Verifier() (string, error) {
	return g.random("code verifier")
}

func (g *Generator) random(what string) (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = ErrShortRead
		}
		return "", fmt.Errorf("generating %s: %w", what, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Equal compares a returned state with the expected one byte-for-byte in constant time
func Equal(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
