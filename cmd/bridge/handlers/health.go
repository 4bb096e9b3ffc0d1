package handlers

import (
	"net/http"
	"time"
)

// SessionCounter reports the number of open browser sessions.
type SessionCounter interface {
	Len() int
}

// RootResponse identifies the service.
type RootResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"active_sessions"`
}

// HealthHandler serves the service identity and health endpoints.
type HealthHandler struct {
	sessions SessionCounter
	service  string
	version  string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions SessionCounter, service, version string) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		service:  service,
		version:  version,
	}
}

// Root handles service identity requests.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, RootResponse{
		Service: h.service,
		Status:  "running",
		Version: h.version,
	})
}

// Health handles health check requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now(),
		ActiveSessions: h.sessions.Len(),
	})
}
