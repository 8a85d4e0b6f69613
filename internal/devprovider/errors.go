package devprovider

import (
	"encoding/json"
	"net/http"
	"strings"
)

// OAuth2 error codes, RFC 6749 sections 4.1.2.1 and 5.2
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorInvalidClient           = "invalid_client"
	ErrorInvalidGrant            = "invalid_grant"
	ErrorUnsupportedGrantType    = "unsupported_grant_type"
	ErrorUnsupportedResponseType = "unsupported_response_type"
	ErrorAccessDenied            = "access_denied"
	ErrorServerError             = "server_error"
)

// ErrorResponse is the RFC 6749 section 5.2 error body
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// SetJSONHeaders sets the headers RFC 6749 section 5.1 requires on token responses
func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
}

// WriteError sends a token endpoint error response
func WriteError(w http.ResponseWriter, status int, code string, description string) {
	SetJSONHeaders(w)
	if code == ErrorInvalidClient && status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="devprovider"`)
	}

	response := ErrorResponse{
		Error:            code,
		ErrorDescription: strings.TrimSpace(description),
	}

	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return
	}
}

// WriteJSON sends a 200 JSON response, or a server_error when v cannot be encoded
func WriteJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		WriteJSONError(w, err)
		return
	}
	SetJSONHeaders(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

// WriteJSONError handles JSON encoding failures with a standardized response
func WriteJSONError(w http.ResponseWriter, err error) {
	SetJSONHeaders(w)
	w.WriteHeader(http.StatusInternalServerError)

	errResponse := []byte(`{"error":"server_error","error_description":"Failed to encode response"}`)
	if _, writeErr := w.Write(errResponse); writeErr != nil {
		return
	}
}
