package handlers

import (
	"context"
	"net/http"

	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/runner"
)

// TestRunner executes a test request to completion.
type TestRunner interface {
	Run(ctx context.Context, req runner.TestRequest) *runner.TestResult
}

// ExecuteHandler handles test execution requests.
type ExecuteHandler struct {
	runner TestRunner
	logger logger.Logger
}

// NewExecuteHandler creates a new execute handler.
func NewExecuteHandler(r TestRunner, log logger.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		runner: r,
		logger: log,
	}
}

// Execute runs the submitted test and returns its result. The response is
// 200 whatever the test outcome; only malformed requests are rejected.
func (h *ExecuteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req runner.TestRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn(r.Context(), "invalid test request", map[string]interface{}{
			"error":   err.Error(),
			"test_id": req.TestID,
		})
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.runner.Run(r.Context(), req)
	respondJSON(w, http.StatusOK, result)
}
