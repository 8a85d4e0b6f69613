// Package oauth builds authorization URLs and exchanges authorization codes using golang.org/x/oauth2
package oauth

import (
	"errors"
	"net/http"
	"time"
)

// Common errors returned by Client.Exchange
var (
	// ErrRejected indicates the token endpoint answered with an OAuth error
	ErrRejected = errors.New("token request rejected by provider")

	// ErrUnavailable indicates the token endpoint could not be reached or answered unintelligibly
	ErrUnavailable = errors.New("token endpoint unavailable")

	// ErrInvalidGrant indicates the provider rejected the code itself (expired, reused, wrong redirect)
	ErrInvalidGrant = errors.New("invalid grant")
)

// RejectedError carries the OAuth error returned by the token endpoint
type RejectedError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *RejectedError) Error() string {
	msg := "token request rejected"
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

// Is matches ErrRejected for every rejection and ErrInvalidGrant for invalid_grant
func (e *RejectedError) Is(target error) bool {
	switch target {
	case ErrRejected:
		return true
	case ErrInvalidGrant:
		return e.Code == "invalid_grant"
	}
	return false
}

// Config holds client credentials, endpoints and scopes
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	// AuthParams are extra query parameters added to the authorization URL
	AuthParams map[string]string
	// HTTPClient is used for the token request; nil means a client with DefaultTimeout
	HTTPClient *http.Client
}

// DefaultTimeout bounds the token request when no HTTP client is supplied
const DefaultTimeout = 30 * time.Second
