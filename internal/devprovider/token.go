package devprovider

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
)

const tokenLifetime = 3600

// TokenResponse is the RFC 6749 section 5.1 success body
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func (s *Server) handleToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, ErrorInvalidRequest, "Invalid request format")
			return
		}

		clientID, clientSecret, ok := clientCredentials(r)
		if !ok || !s.authenticateClient(clientID, clientSecret) {
			WriteError(w, http.StatusUnauthorized, ErrorInvalidClient, "Client authentication failed")
			return
		}

		if r.PostForm.Get("grant_type") != "authorization_code" {
			WriteError(w, http.StatusBadRequest, ErrorUnsupportedGrantType, "Only authorization_code is supported")
			return
		}
		code := r.PostForm.Get("code")
		if code == "" {
			WriteError(w, http.StatusBadRequest, ErrorInvalidRequest, "Missing code parameter")
			return
		}

		grant, err := s.store.TakeCode(r.Context(), code)
		if err != nil {
			if errors.Is(err, ErrCodeNotFound) {
				WriteError(w, http.StatusBadRequest, ErrorInvalidGrant, "Unknown, expired or already used code")
				return
			}
			s.logger.WithError(err).Error("taking authorization code")
			WriteError(w, http.StatusInternalServerError, ErrorServerError, "")
			return
		}

		switch {
		case grant.ClientID != clientID:
			WriteError(w, http.StatusBadRequest, ErrorInvalidGrant, "Code was issued to another client")
			return
		case r.PostForm.Get("redirect_uri") != grant.RedirectURI:
			WriteError(w, http.StatusBadRequest, ErrorInvalidGrant, "redirect_uri does not match the authorization request")
			return
		case !verifyPKCE(grant, r.PostForm.Get("code_verifier")):
			WriteError(w, http.StatusBadRequest, ErrorInvalidGrant, "PKCE verification failed")
			return
		}

		access, err := generateSecureCode(s.random, tokenBytes)
		if err != nil {
			s.logger.WithError(err).Error("generating access token")
			WriteError(w, http.StatusInternalServerError, ErrorServerError, "")
			return
		}
		refresh, err := generateSecureCode(s.random, tokenBytes)
		if err != nil {
			s.logger.WithError(err).Error("generating refresh token")
			WriteError(w, http.StatusInternalServerError, ErrorServerError, "")
			return
		}

		WriteJSON(w, TokenResponse{
			AccessToken:  access,
			TokenType:    "Bearer",
			ExpiresIn:    tokenLifetime,
			RefreshToken: refresh,
			Scope:        grant.Scope,
		})
	}
}

// clientCredentials reads HTTP Basic credentials (form-urlencoded per RFC 6749
// section 2.3.1) or falls back to client_id and client_secret form fields
func clientCredentials(r *http.Request) (string, string, bool) {
	if user, pass, ok := r.BasicAuth(); ok {
		id, err1 := url.QueryUnescape(user)
		secret, err2 := url.QueryUnescape(pass)
		if err1 != nil || err2 != nil {
			return "", "", false
		}
		return id, secret, true
	}
	id := r.PostForm.Get("client_id")
	if id == "" {
		return "", "", false
	}
	return id, r.PostForm.Get("client_secret"), true
}

func (s *Server) authenticateClient(id, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(s.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(s.clientSecret)) == 1
	return idOK && secretOK
}
