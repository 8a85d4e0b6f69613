// Package devprovider implements a minimal OAuth2 authorization server for
// exercising loopback redirects locally: a consent endpoint that redirects
// straight back with a code, and a token endpoint that redeems it.
package devprovider

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCodeNotFound indicates an unknown, expired or already redeemed code
var ErrCodeNotFound = errors.New("authorization code not found")

// Grant is what an authorization code stands for until it is redeemed
type Grant struct {
	ClientID            string    `json:"client_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scope               string    `json:"scope,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// Store holds issued authorization codes. TakeCode removes the code so that
// every code can be redeemed at most once.
type Store interface {
	SaveCode(ctx context.Context, code string, grant *Grant) error
	TakeCode(ctx context.Context, code string) (*Grant, error)
	CheckHealth(ctx context.Context) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]*Grant
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes: make(map[string]*Grant),
		now:   time.Now,
	}
}

// SaveCode stores grant under code
func (s *MemoryStore) SaveCode(_ context.Context, code string, grant *Grant) error {
	if !grant.ExpiresAt.After(s.now()) {
		return errors.New("code has already expired")
	}
	g := *grant

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = &g
	return nil
}

// TakeCode returns and forgets the grant for code
func (s *MemoryStore) TakeCode(_ context.Context, code string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	delete(s.codes, code)
	if !grant.ExpiresAt.After(s.now()) {
		return nil, ErrCodeNotFound
	}
	return grant, nil
}

// CheckHealth always succeeds
func (s *MemoryStore) CheckHealth(context.Context) error { return nil }
