package noserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/wrale/oauth2-noserver/internal/devprovider"
)

// consentBrowser visits the authorization URL on a devprovider and delivers
// the redirect it answers with to the loopback listener
type consentBrowser struct {
	client    *http.Client
	responses chan callbackResponse
}

func newConsentBrowser() *consentBrowser {
	return &consentBrowser{
		client: &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		responses: make(chan callbackResponse, 1),
	}
}

func (b *consentBrowser) open(rawURL string) error {
	resp, err := b.client.Get(rawURL)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		return fmt.Errorf("consent page answered %d", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return err
	}
	port, _ := strconv.Atoi(loc.Port())
	go func() { b.responses <- sendRequestLine(port, callbackLine(loc.RequestURI())) }()
	return nil
}

func newProvider(t *testing.T, opts ...devprovider.Option) *httptest.Server {
	t.Helper()
	opts = append([]devprovider.Option{devprovider.WithLogger(quietLogger())}, opts...)
	srv := httptest.NewServer(devprovider.NewServer(devprovider.NewMemoryStore(), "cli-client", "s3cret", opts...))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name    string
		deny    bool
		pkce    bool
		wantErr error
	}{
		{name: "approved with pkce", pkce: true},
		{name: "approved without pkce"},
		{name: "denied", deny: true, pkce: true, wantErr: ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newProvider(t, devprovider.WithDeny(tt.deny))
			cfg := NewConfig("cli-client", "s3cret", provider.URL+"/authorize", provider.URL+"/token").
				WithPort(freePort(t)).
				WithScopes("openid").
				WithTimeout(5 * time.Second).
				WithPKCE(tt.pkce)

			browser := newConsentBrowser()
			a := newTestAuthenticator(t, cfg,
				WithBrowser(browser.open),
				WithHTTPClient(&http.Client{Transport: &http.Transport{DisableKeepAlives: true}}),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			token, err := a.Authenticate(ctx)
			resp := <-browser.responses

			if resp.err != nil || resp.status != 200 {
				t.Errorf("browser saw status %d, err %v", resp.status, resp.err)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if token.AccessToken == "" || token.RefreshToken == "" {
				t.Errorf("incomplete token %+v", token)
			}
			if got := token.Extra("scope"); got != "openid" {
				t.Errorf("scope = %v, want openid", got)
			}
		})
	}
}
