package noserver

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an authentication failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindBind means the loopback listener could not be bound
	KindBind
	// KindTimeout means no callback arrived within the time budget
	KindTimeout
	// KindMalformedRequest means the callback request line or URL could not be parsed
	KindMalformedRequest
	// KindMissingCode means the callback carried neither a code nor an error
	KindMissingCode
	// KindProvider means the provider redirected back with an error parameter
	KindProvider
	// KindStateMismatch means the returned state did not match, a possible CSRF attempt
	KindStateMismatch
	// KindTokenExchange means the code-for-token request failed
	KindTokenExchange
	// KindBrowserLaunch means the system browser could not be opened (non-fatal)
	KindBrowserLaunch
	// KindConfig means the configuration is structurally invalid
	KindConfig
	// KindCanceled means the caller canceled the context
	KindCanceled
	// KindInFlight means another attempt is already running on the same Authenticator
	KindInFlight
	// KindInternal means a local dependency such as the randomness source failed
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindBind:             "bind",
	KindTimeout:          "timeout",
	KindMalformedRequest: "malformed request",
	KindMissingCode:      "missing code",
	KindProvider:         "provider error",
	KindStateMismatch:    "state mismatch",
	KindTokenExchange:    "token exchange",
	KindBrowserLaunch:    "browser launch",
	KindConfig:           "invalid config",
	KindCanceled:         "canceled",
	KindInFlight:         "authorization in flight",
	KindInternal:         "internal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every failing operation in this package.
type Error struct {
	Kind Kind
	// Op names the step that failed, e.g. "listen" or "exchange"
	Op string
	// Code and Description carry the provider's error and error_description
	// parameters for KindProvider.
	Code        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("noserver")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
		if e.Description != "" {
			b.WriteString(" (")
			b.WriteString(e.Description)
			b.WriteString(")")
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, which lets the
// exported sentinels be used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrBind             = &Error{Kind: KindBind}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrMalformedRequest = &Error{Kind: KindMalformedRequest}
	ErrMissingCode      = &Error{Kind: KindMissingCode}
	ErrProvider         = &Error{Kind: KindProvider}
	ErrStateMismatch    = &Error{Kind: KindStateMismatch}
	ErrTokenExchange    = &Error{Kind: KindTokenExchange}
	ErrBrowserLaunch    = &Error{Kind: KindBrowserLaunch}
	ErrConfig           = &Error{Kind: KindConfig}
	ErrCanceled         = &Error{Kind: KindCanceled}
	ErrInFlight         = &Error{Kind: KindInFlight}
	ErrInternal         = &Error{Kind: KindInternal}
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
