package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) Len() int {
	return int(c)
}

func TestHealthHandler_Root(t *testing.T) {
	h := NewHealthHandler(fixedCounter(0), "browser-bridge", "1.2.3")

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp RootResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, RootResponse{Service: "browser-bridge", Status: "running", Version: "1.2.3"}, resp)
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(fixedCounter(3), "browser-bridge", "dev")

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 3, resp.ActiveSessions)
	assert.False(t, resp.Timestamp.IsZero())
}
