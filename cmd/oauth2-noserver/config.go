package main

import (
	"time"

	noserver "github.com/wrale/oauth2-noserver"
)

// Config holds command configuration loaded from NOSERVER_* environment variables
type Config struct {
	ClientID     string            `envconfig:"CLIENT_ID" required:"true"`
	ClientSecret string            `envconfig:"CLIENT_SECRET"`
	AuthURL      string            `envconfig:"AUTH_URL" required:"true"`
	TokenURL     string            `envconfig:"TOKEN_URL" required:"true"`
	Scopes       []string          `envconfig:"SCOPES"`
	AuthParams   map[string]string `envconfig:"AUTH_PARAMS"`
	Port         int               `envconfig:"PORT" default:"14565"`
	RedirectPath string            `envconfig:"REDIRECT_PATH" default:"/oauth/callback"`
	Timeout      time.Duration     `envconfig:"TIMEOUT" default:"300s"`
	PKCE         bool              `envconfig:"PKCE" default:"true"`
	NoBrowser    bool              `envconfig:"NO_BROWSER" default:"false"`
	LogLevel     string            `envconfig:"LOG_LEVEL" default:"warn"`
}

// authConfig converts the environment into a validated noserver.Config
func (c Config) authConfig() (noserver.Config, error) {
	cfg := noserver.NewConfig(c.ClientID, c.ClientSecret, c.AuthURL, c.TokenURL).
		WithPort(c.Port).
		WithRedirectPath(c.RedirectPath).
		WithTimeout(c.Timeout).
		WithPKCE(c.PKCE)
	if len(c.Scopes) > 0 {
		cfg = cfg.WithScopes(c.Scopes...)
	}
	if len(c.AuthParams) > 0 {
		cfg = cfg.WithAuthParams(c.AuthParams)
	}
	return cfg, cfg.Err()
}
