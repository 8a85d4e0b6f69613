// Package validation provides structural checks for loopback OAuth2 configuration
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Port range accepted for the loopback listener
const (
	MinPort = 1
	MaxPort = 65535
)

// ValidationError represents a structural validation failure
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// ValidatePort checks the listener port is within the TCP range
func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return &ValidationError{
			Field:   "port",
			Value:   fmt.Sprint(port),
			Message: fmt.Sprintf("must be between %d and %d", MinPort, MaxPort),
		}
	}
	return nil
}

// ValidateEndpoint checks an endpoint is an absolute http(s) URL
func ValidateEndpoint(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &ValidationError{Field: field, Value: raw, Message: "must not be empty"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: field, Value: raw, Message: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: field, Value: raw, Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: field, Value: raw, Message: "host is required"}
	}
	return nil
}

// ValidateRedirectPath checks the callback path is an absolute path without query or fragment
func ValidateRedirectPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return &ValidationError{Field: "redirect path", Value: path, Message: "must start with /"}
	}
	if strings.ContainsAny(path, "?# \t\r\n") {
		return &ValidationError{Field: "redirect path", Value: path, Message: "must not contain query, fragment or whitespace"}
	}
	if _, err := url.ParseRequestURI(path); err != nil {
		return &ValidationError{Field: "redirect path", Value: path, Message: err.Error()}
	}
	return nil
}

// ValidateScopes rejects empty scopes and scopes containing whitespace
func ValidateScopes(scopes []string) error {
	for _, s := range scopes {
		if s == "" || strings.ContainsAny(s, " \t\r\n") {
			return &ValidationError{Field: "scope", Value: s, Message: "must be non-empty and contain no whitespace"}
		}
	}
	return nil
}

// LoopbackRedirectURI builds the redirect URI registered with the provider
func LoopbackRedirectURI(port int, path string) string {
	return fmt.Sprintf("http://localhost:%d%s", port, path)
}

// IsLoopbackRedirect reports whether raw is a plain-http URI pointing at the local machine
func IsLoopbackRedirect(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" || u.Port() == "" {
		return false
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
