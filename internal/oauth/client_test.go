package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/oauth2"
)

const testRedirect = "http://localhost:14565/oauth/callback"

func newTestClient(t *testing.T, tokenURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		AuthURL:      "https://provider.example.com/authorize",
		TokenURL:     tokenURL,
		Scopes:       []string{"openid", "email"},
		AuthParams:   map[string]string{"prompt": "consent", "access_type": "offline"},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing client id", cfg: Config{AuthURL: "https://a", TokenURL: "https://t"}},
		{name: "missing auth url", cfg: Config{ClientID: "c", TokenURL: "https://t"}},
		{name: "missing token url", cfg: Config{ClientID: "c", AuthURL: "https://a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); err == nil {
				t.Error("NewClient() expected error")
			}
		})
	}
}

func TestClient_AuthCodeURL(t *testing.T) {
	c := newTestClient(t, "https://provider.example.com/token")

	raw := c.AuthCodeURL("xyz123", testRedirect, oauth2.S256ChallengeOption("verifier-verifier-verifier-verifier-verifier"))
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL() returned unparseable URL %q: %v", raw, err)
	}

	if got := u.Scheme + "://" + u.Host + u.Path; got != "https://provider.example.com/authorize" {
		t.Errorf("AuthCodeURL() base = %q", got)
	}

	q := u.Query()
	want := map[string]string{
		"client_id":             "client-1",
		"response_type":         "code",
		"redirect_uri":          testRedirect,
		"scope":                 "openid email",
		"state":                 "xyz123",
		"prompt":                "consent",
		"access_type":           "offline",
		"code_challenge_method": "S256",
	}
	got := make(map[string]string, len(want))
	for k := range want {
		got[k] = q.Get(k)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AuthCodeURL() query mismatch (-want +got):\n%s", diff)
	}
	if q.Get("code_challenge") == "" {
		t.Error("AuthCodeURL() missing code_challenge")
	}
}

func TestClient_Exchange(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantErr    error
		wantAlso   error
		wantToken  string
		wantDetail *RejectedError
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: map[string]any{
				"access_token":  "at-1",
				"token_type":    "Bearer",
				"refresh_token": "rt-1",
				"expires_in":    3600,
			},
			wantToken: "at-1",
		},
		{
			name:     "invalid grant",
			status:   http.StatusBadRequest,
			body:     map[string]string{"error": "invalid_grant", "error_description": "code expired"},
			wantErr:  ErrRejected,
			wantAlso: ErrInvalidGrant,
			wantDetail: &RejectedError{
				StatusCode:  http.StatusBadRequest,
				Code:        "invalid_grant",
				Description: "code expired",
			},
		},
		{
			name:    "invalid client",
			status:  http.StatusUnauthorized,
			body:    map[string]string{"error": "invalid_client"},
			wantErr: ErrRejected,
			wantDetail: &RejectedError{
				StatusCode: http.StatusUnauthorized,
				Code:       "invalid_client",
			},
		},
		{
			name:    "gateway error without oauth body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForm url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("parsing token request: %v", err)
				}
				gotForm = r.PostForm
				if s, ok := tt.body.(string); ok {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(s))
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			token, err := c.Exchange(context.Background(), "4/AAA", testRedirect, oauth2.VerifierOption("the-verifier"))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Exchange() error = %v, want %v", err, tt.wantErr)
				}
				if tt.wantAlso != nil && !errors.Is(err, tt.wantAlso) {
					t.Errorf("Exchange() error = %v, want it to also match %v", err, tt.wantAlso)
				}
				if tt.wantDetail != nil {
					var rerr *RejectedError
					if !errors.As(err, &rerr) {
						t.Fatalf("Exchange() error %v is not a *RejectedError", err)
					}
					if diff := cmp.Diff(tt.wantDetail, rerr); diff != "" {
						t.Errorf("RejectedError mismatch (-want +got):\n%s", diff)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("Exchange() error = %v", err)
			}
			if token.AccessToken != tt.wantToken {
				t.Errorf("AccessToken = %q, want %q", token.AccessToken, tt.wantToken)
			}
			if gotForm.Get("code") != "4/AAA" {
				t.Errorf("code = %q, want %q", gotForm.Get("code"), "4/AAA")
			}
			if gotForm.Get("redirect_uri") != testRedirect {
				t.Errorf("redirect_uri = %q, want %q", gotForm.Get("redirect_uri"), testRedirect)
			}
			if gotForm.Get("code_verifier") != "the-verifier" {
				t.Errorf("code_verifier = %q, want %q", gotForm.Get("code_verifier"), "the-verifier")
			}
		})
	}
}

func TestClient_ExchangeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tokenURL := srv.URL
	srv.Close()

	c := newTestClient(t, tokenURL)
	_, err := c.Exchange(context.Background(), "code", testRedirect)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Exchange() error = %v, want %v", err, ErrUnavailable)
	}
	if errors.Is(err, ErrRejected) {
		t.Errorf("Exchange() error = %v should not match %v", err, ErrRejected)
	}
}
