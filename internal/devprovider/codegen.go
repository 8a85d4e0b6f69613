package devprovider

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"
)

const (
	codeBytes  = 16
	tokenBytes = 24
)

// generateSecureCode returns length random bytes from source, hex encoded
func generateSecureCode(source io.Reader, length int) (string, error) {
	if source == nil {
		source = rand.Reader
	}
	bytes := make([]byte, length)
	if _, err := io.ReadFull(source, bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// S256Challenge derives the RFC 7636 S256 code challenge for verifier
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// verifyPKCE checks a code verifier against the challenge stored with a grant
func verifyPKCE(grant *Grant, verifier string) bool {
	if grant.CodeChallenge == "" {
		return true
	}
	if verifier == "" || grant.CodeChallengeMethod != "S256" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(S256Challenge(verifier)), []byte(grant.CodeChallenge)) == 1
}
