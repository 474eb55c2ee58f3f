package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Index       string `json:"index"`
	RecordStore string `json:"record_store"`
	Timestamp   string `json:"timestamp"`
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. It
// checks the search index and the canonical record store and returns 503
// when either is down.
func NewHealthHandler(idx HealthChecker, store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:      "healthy",
			Index:       "connected",
			RecordStore: "connected",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}

		if err := idx.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Index = "disconnected"
		}
		if err := store.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.RecordStore = "disconnected"
		}

		w.Header().Set("Content-Type", "application/json")
		if response.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}
