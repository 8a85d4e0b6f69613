package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/oauth2"
)

// Client implements authorization URL construction and code exchange for one provider
type Client struct {
	cfg        oauth2.Config
	params     []oauth2.AuthCodeOption
	httpClient *http.Client
}

// NewClient creates a Client from cfg
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("authorization and token endpoints are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	// Deterministic parameter order keeps URLs stable across runs
	keys := make([]string, 0, len(cfg.AuthParams))
	for k := range cfg.AuthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]oauth2.AuthCodeOption, 0, len(keys))
	for _, k := range keys {
		params = append(params, oauth2.SetAuthURLParam(k, cfg.AuthParams[k]))
	}

	return &Client{
		cfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       append([]string(nil), cfg.Scopes...),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		params:     params,
		httpClient: httpClient,
	}, nil
}

// AuthCodeURL returns the URL of the provider's consent page
func (c *Client) AuthCodeURL(state, redirectURI string, opts ...oauth2.AuthCodeOption) string {
	cfg := c.cfg
	cfg.RedirectURL = redirectURI

	all := make([]oauth2.AuthCodeOption, 0, len(c.params)+len(opts))
	all = append(all, c.params...)
	all = append(all, opts...)
	return cfg.AuthCodeURL(state, all...)
}

// Exchange trades an authorization code for a token.
// Errors wrap ErrRejected (with a *RejectedError) or ErrUnavailable.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	cfg := c.cfg
	cfg.RedirectURL = redirectURI

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, classify(err)
	}
	return token, nil
}

func classify(err error) error {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return fmt.Errorf("exchanging authorization code: %w: %w", ErrUnavailable, err)
	}

	status := 0
	if rerr.Response != nil {
		status = rerr.Response.StatusCode
	}
	if rerr.ErrorCode == "" {
		// Not an RFC 6749 error body, e.g. an HTML 502 from a proxy
		return fmt.Errorf("exchanging authorization code: %w: status %d", ErrUnavailable, status)
	}
	return fmt.Errorf("exchanging authorization code: %w", &RejectedError{
		StatusCode:  status,
		Code:        rerr.ErrorCode,
		Description: rerr.ErrorDescription,
	})
}
