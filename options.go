package noserver

import (
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Option configures an Authenticator
type Option func(*Authenticator)

// WithLogger sets the logger; the default is logrus.StandardLogger()
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithRandom sets the randomness source for state tokens and PKCE verifiers.
// The default is crypto/rand; tests may supply a deterministic reader.
func WithRandom(r io.Reader) Option {
	return func(a *Authenticator) {
		a.random = r
	}
}

// WithURLBuilder replaces the default golang.org/x/oauth2 URL builder
func WithURLBuilder(b URLBuilder) Option {
	return func(a *Authenticator) {
		a.builder = b
	}
}

// WithExchanger replaces the default golang.org/x/oauth2 code exchanger
func WithExchanger(e Exchanger) Option {
	return func(a *Authenticator) {
		a.exchanger = e
	}
}

// WithHTTPClient sets the client used by the default exchanger
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authenticator) {
		a.httpClient = c
	}
}

// WithBrowser replaces the system browser launcher
func WithBrowser(open BrowserOpener) Option {
	return func(a *Authenticator) {
		a.openBrowser = open
	}
}

// WithoutBrowser disables the browser launch; the URL is only printed
func WithoutBrowser() Option {
	return func(a *Authenticator) {
		a.openBrowser = nil
		a.noBrowser = true
	}
}

// WithOutput sets where the authorization URL is printed; the default is os.Stderr
func WithOutput(w io.Writer) Option {
	return func(a *Authenticator) {
		a.output = w
	}
}

// WithURLHandler registers a hook that receives every authorization URL
func WithURLHandler(fn func(authURL string)) Option {
	return func(a *Authenticator) {
		a.onURL = fn
	}
}

// WithBrowserErrorHandler registers a hook for the non-fatal KindBrowserLaunch error
func WithBrowserErrorHandler(fn func(err error)) Option {
	return func(a *Authenticator) {
		a.onBrowserErr = fn
	}
}
