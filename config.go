package noserver

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/wrale/oauth2-noserver/internal/validation"
)

// Defaults applied by NewConfig
const (
	DefaultPort         = 14565
	DefaultRedirectPath = "/oauth/callback"
	DefaultTimeout      = 300 * time.Second
)

// Config is an immutable description of one provider registration and the
// loopback listener. Every With method returns an updated copy; the receiver
// is never modified. A structurally invalid value is remembered and reported
// by Err and by Authenticate.
type Config struct {
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	scopes       []string
	authParams   map[string]string
	port         int
	redirectPath string
	timeout      time.Duration
	pkce         bool
	err          error
}

// NewConfig returns a Config for the given client credentials and provider endpoints
func NewConfig(clientID, clientSecret, authURL, tokenURL string) Config {
	c := Config{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      authURL,
		tokenURL:     tokenURL,
		port:         DefaultPort,
		redirectPath: DefaultRedirectPath,
		timeout:      DefaultTimeout,
		pkce:         true,
	}
	if clientID == "" {
		c = c.fail(errors.New("client ID is required"))
	}
	if err := validation.ValidateEndpoint("authorization endpoint", authURL); err != nil {
		c = c.fail(err)
	}
	if err := validation.ValidateEndpoint("token endpoint", tokenURL); err != nil {
		c = c.fail(err)
	}
	return c
}

// WithPort sets the loopback port the redirect is delivered to
func (c Config) WithPort(port int) Config {
	if err := validation.ValidatePort(port); err != nil {
		return c.fail(err)
	}
	c.port = port
	return c
}

// WithRedirectPath sets the path component of the redirect URI
func (c Config) WithRedirectPath(path string) Config {
	if err := validation.ValidateRedirectPath(path); err != nil {
		return c.fail(err)
	}
	c.redirectPath = path
	return c
}

// WithTimeout bounds how long Authenticate waits for the redirect
func (c Config) WithTimeout(d time.Duration) Config {
	if d <= 0 {
		return c.fail(&validation.ValidationError{Field: "timeout", Value: d.String(), Message: "must be positive"})
	}
	c.timeout = d
	return c
}

// WithScopes replaces the requested scopes
func (c Config) WithScopes(scopes ...string) Config {
	if err := validation.ValidateScopes(scopes); err != nil {
		return c.fail(err)
	}
	c.scopes = slices.Clone(scopes)
	return c
}

// WithPKCE toggles the S256 code challenge
func (c Config) WithPKCE(enabled bool) Config {
	c.pkce = enabled
	return c
}

// WithAuthParams adds provider-specific query parameters to the authorization URL,
// e.g. access_type=offline
func (c Config) WithAuthParams(params map[string]string) Config {
	merged := maps.Clone(c.authParams)
	if merged == nil {
		merged = make(map[string]string, len(params))
	}
	for k, v := range params {
		switch k {
		case "state", "redirect_uri", "client_id", "response_type", "code_challenge", "code_challenge_method":
			return c.fail(&validation.ValidationError{Field: "auth param", Value: k, Message: "is managed by the authenticator"})
		}
		merged[k] = v
	}
	c.authParams = merged
	return c
}

// Err reports the first structural problem recorded while building c
func (c Config) Err() error {
	if c.err == nil {
		return nil
	}
	return newError(KindConfig, "configure", c.err)
}

// Port returns the loopback port
func (c Config) Port() int { return c.port }

// RedirectPath returns the path component of the redirect URI
func (c Config) RedirectPath() string { return c.redirectPath }

// RedirectURI returns http://localhost:{port}{path}
func (c Config) RedirectURI() string {
	return validation.LoopbackRedirectURI(c.port, c.redirectPath)
}

// Timeout returns the redirect wait budget
func (c Config) Timeout() time.Duration { return c.timeout }

// Scopes returns a copy of the requested scopes
func (c Config) Scopes() []string { return slices.Clone(c.scopes) }

// PKCE reports whether the S256 code challenge is used
func (c Config) PKCE() bool { return c.pkce }

func (c Config) fail(err error) Config {
	if c.err == nil {
		c.err = err
	}
	return c
}
