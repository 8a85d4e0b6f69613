package devprovider

import (
	"encoding/json"
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		response := HealthResponse{
			Status:  "healthy",
			Version: s.version,
			Details: make(map[string]any),
		}

		if err := s.store.CheckHealth(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Details["code_store"] = map[string]any{
				"status":  "unhealthy",
				"message": err.Error(),
			}
		} else {
			response.Details["code_store"] = map[string]any{
				"status": "healthy",
			}
		}

		if response.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, `{"error":"server_error","error_description":"Error encoding response"}`,
				http.StatusInternalServerError)
			return
		}
	}
}
