package devprovider

import (
	"net/http"
	"net/url"

	"github.com/wrale/oauth2-noserver/internal/validation"
)

// handleAuthorize plays the consent page: it approves (or, with WithDeny,
// refuses) at once and redirects back to the client's loopback URI
func (s *Server) handleAuthorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		clientID := q.Get("client_id")
		redirectURI := q.Get("redirect_uri")
		st := q.Get("state")

		// Without a trusted redirect URI there is nowhere safe to send errors
		if clientID != s.clientID {
			http.Error(w, "unknown client_id", http.StatusBadRequest)
			return
		}
		if !validation.IsLoopbackRedirect(redirectURI) {
			http.Error(w, "redirect_uri must be an http loopback URI with a port", http.StatusBadRequest)
			return
		}

		if q.Get("response_type") != "code" {
			s.redirectError(w, r, redirectURI, st, ErrorUnsupportedResponseType, "only response_type=code is supported")
			return
		}
		challenge := q.Get("code_challenge")
		method := q.Get("code_challenge_method")
		if challenge != "" && method != "S256" {
			s.redirectError(w, r, redirectURI, st, ErrorInvalidRequest, "code_challenge_method must be S256")
			return
		}
		if s.deny {
			s.redirectError(w, r, redirectURI, st, ErrorAccessDenied, "The user denied the request")
			return
		}

		code, err := generateSecureCode(s.random, codeBytes)
		if err != nil {
			s.logger.WithError(err).Error("generating authorization code")
			s.redirectError(w, r, redirectURI, st, ErrorServerError, "")
			return
		}
		grant := &Grant{
			ClientID:            clientID,
			RedirectURI:         redirectURI,
			Scope:               q.Get("scope"),
			CodeChallenge:       challenge,
			CodeChallengeMethod: method,
			ExpiresAt:           s.now().Add(s.codeExpiry),
		}
		if err := s.store.SaveCode(r.Context(), code, grant); err != nil {
			s.logger.WithError(err).Error("saving authorization code")
			s.redirectError(w, r, redirectURI, st, ErrorServerError, "")
			return
		}

		redirect(w, r, redirectURI, url.Values{"code": {code}}, st)
	}
}

func (s *Server) redirectError(w http.ResponseWriter, r *http.Request, redirectURI, st, code, description string) {
	params := url.Values{"error": {code}}
	if description != "" {
		params.Set("error_description", description)
	}
	redirect(w, r, redirectURI, params, st)
}

func redirect(w http.ResponseWriter, r *http.Request, redirectURI string, params url.Values, st string) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	if st != "" {
		q.Set("state", st)
	}
	u.RawQuery = q.Encode()

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, u.String(), http.StatusFound)
}
