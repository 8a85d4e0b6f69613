package noserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/wrale/oauth2-noserver/internal/browser"
	"github.com/wrale/oauth2-noserver/internal/oauth"
	"github.com/wrale/oauth2-noserver/internal/state"
)

// URLBuilder produces the provider's consent URL
type URLBuilder interface {
	AuthCodeURL(state, redirectURI string, opts ...oauth2.AuthCodeOption) string
}

// Exchanger trades an authorization code for a token
type Exchanger interface {
	Exchange(ctx context.Context, code, redirectURI string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// BrowserOpener launches a browser at a URL without waiting for it
type BrowserOpener func(url string) error

// Authenticator runs the installed-app authorization code flow against one
// provider. It allows one Authenticate call at a time.
type Authenticator struct {
	cfg Config

	logger       logrus.FieldLogger
	random       io.Reader
	builder      URLBuilder
	exchanger    Exchanger
	httpClient   *http.Client
	openBrowser  BrowserOpener
	noBrowser    bool
	output       io.Writer
	onURL        func(string)
	onBrowserErr func(error)

	catcher  *Catcher
	inFlight atomic.Bool
}

// New creates an Authenticator for cfg
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	if err := cfg.Err(); err != nil {
		return nil, err
	}

	a := &Authenticator{cfg: cfg, output: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logrus.StandardLogger()
	}
	if a.openBrowser == nil && !a.noBrowser {
		a.openBrowser = browser.New(a.logger).Open
	}
	if a.output == nil {
		a.output = io.Discard
	}

	if a.builder == nil || a.exchanger == nil {
		client, err := oauth.NewClient(oauth.Config{
			ClientID:     cfg.clientID,
			ClientSecret: cfg.clientSecret,
			AuthURL:      cfg.authURL,
			TokenURL:     cfg.tokenURL,
			Scopes:       cfg.scopes,
			AuthParams:   cfg.authParams,
			HTTPClient:   a.httpClient,
		})
		if err != nil {
			return nil, newError(KindConfig, "configure", err)
		}
		if a.builder == nil {
			a.builder = client
		}
		if a.exchanger == nil {
			a.exchanger = client
		}
	}

	a.catcher = NewCatcher(a.logger)
	return a, nil
}

// Config returns the configuration the Authenticator was built with
func (a *Authenticator) Config() Config { return a.cfg }

// Authenticate sends the user through the provider's consent page and returns
// the token obtained for the captured code. Failures are *Error values; none
// leaves the loopback port bound.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, newError(KindInFlight, "authenticate", nil)
	}
	defer a.inFlight.Store(false)

	if err := a.cfg.Err(); err != nil {
		return nil, err
	}

	gen := state.NewGenerator(a.random)
	expectedState, err := gen.Token()
	if err != nil {
		return nil, newError(KindInternal, "generate state", err)
	}

	var authOpts, exchangeOpts []oauth2.AuthCodeOption
	if a.cfg.pkce {
		verifier, err := gen.Verifier()
		if err != nil {
			return nil, newError(KindInternal, "generate verifier", err)
		}
		authOpts = append(authOpts, oauth2.S256ChallengeOption(verifier))
		exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(verifier))
	}

	redirectURI := a.cfg.RedirectURI()
	authURL := a.builder.AuthCodeURL(expectedState, redirectURI, authOpts...)
	if u, err := url.Parse(authURL); err != nil || !u.IsAbs() {
		return nil, newError(KindConfig, "build url", fmt.Errorf("authorization URL %q is not absolute", authURL))
	}

	// Bind before the browser starts so a fast redirect cannot beat the listener.
	pending, err := a.catcher.Listen(ctx, a.cfg.port, a.cfg.timeout)
	if err != nil {
		return nil, err
	}
	defer pending.Close()

	a.surface(authURL)
	a.launch(authURL)

	captured, err := pending.Wait(ctx, expectedState)
	if err != nil {
		return nil, err
	}

	token, err := a.exchanger.Exchange(ctx, captured.Code, redirectURI, exchangeOpts...)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, newError(KindCanceled, "exchange", err)
		}
		return nil, newError(KindTokenExchange, "exchange", err)
	}

	a.logger.WithField("port", a.cfg.port).Info("authorization completed")
	return token, nil
}

func (a *Authenticator) surface(authURL string) {
	fmt.Fprintf(a.output, "Open the following URL in your browser to continue:\n\n%s\n\n", authURL)
	if a.onURL != nil {
		a.onURL(authURL)
	}
}

func (a *Authenticator) launch(authURL string) {
	if a.openBrowser == nil {
		return
	}
	if err := a.openBrowser(authURL); err != nil {
		berr := newError(KindBrowserLaunch, "open browser", err)
		a.logger.WithError(err).Warn("could not open a browser, open the printed URL manually")
		if a.onBrowserErr != nil {
			a.onBrowserErr(berr)
		}
	}
}
