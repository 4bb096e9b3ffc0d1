package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/browser-bridge/step"
)

func TestMetrics_Observers(t *testing.T) {
	m := New()

	m.ObserveRun("PASS", 3.5)
	m.ObserveRun("FAIL", 12)
	m.ObserveRun("PASS", 1)
	m.ObserveStep(step.ActionClick, step.StatusPassed, 1)
	m.ObserveStep(step.ActionVerify, step.StatusFailed, 3)
	m.SetActiveSessions(4)
	m.SetActiveSessions(2)
	m.ObserveDelivery("delivered")

	assert.Equal(t, 2.0, promtest.ToFloat64(m.runs.WithLabelValues("PASS")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.runs.WithLabelValues("FAIL")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.steps.WithLabelValues("verify", "failed")))
	assert.Equal(t, 4.0, promtest.ToFloat64(m.stepAttempts))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.webhookDelivered.WithLabelValues("delivered")))
}

func TestMetrics_ObserveStepCollapsesUnknownActions(t *testing.T) {
	m := New()

	m.ObserveStep(step.Action("hover"), step.StatusFailed, 3)
	m.ObserveStep(step.Action("scroll"), step.StatusFailed, 3)
	m.ObserveStep(step.Action(""), step.StatusFailed, 3)
	m.ObserveStep(step.ActionClick, step.StatusFailed, 3)

	assert.Equal(t, 3.0, promtest.ToFloat64(m.steps.WithLabelValues(UnknownAction, "failed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.steps.WithLabelValues("click", "failed")))
	assert.Equal(t, 2, promtest.CollectAndCount(m.steps))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRun("ERROR", 0.2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bridge_runs_total{status="ERROR"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.SetActiveSessions(3)

	assert.Equal(t, 0.0, promtest.ToFloat64(b.activeSessions))
}
