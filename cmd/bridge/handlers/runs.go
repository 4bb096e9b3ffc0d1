package handlers

import (
	"errors"
	"net/http"

	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
)

// RunsHandler serves the stored run history.
type RunsHandler struct {
	store  history.Store
	logger logger.Logger
}

// NewRunsHandler creates a new runs handler. A nil store means history is
// disabled and every request is answered with 503.
func NewRunsHandler(store history.Store, log logger.Logger) *RunsHandler {
	return &RunsHandler{
		store:  store,
		logger: log,
	}
}

func (h *RunsHandler) enabled(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "run history is disabled")
		return false
	}
	return true
}

// List handles listing stored runs, optionally filtered by test_id.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	limit, offset := parsePagination(r, history.DefaultLimit, history.MaxLimit)
	filter := history.ListFilter{
		TestID: r.URL.Query().Get("test_id"),
		Limit:  limit,
		Offset: offset,
	}

	runs, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		h.logger.Error(r.Context(), "failed to count runs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(runs, total, limit, offset))
}

// GetByID handles getting a single stored run.
func (h *RunsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	run, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
