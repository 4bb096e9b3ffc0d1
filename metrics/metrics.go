// Package metrics exposes prometheus collectors for runs, steps, sessions and
// webhook deliveries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hairizuan-noorazman/browser-bridge/step"
)

const namespace = "bridge"

// Metrics holds the service collectors on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	runs             *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	steps            *prometheus.CounterVec
	stepAttempts     prometheus.Counter
	activeSessions   prometheus.Gauge
	webhookDelivered *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Test runs completed, by status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of test runs, by status.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"status"}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Steps executed, by action and status.",
		}, []string{"action", "status"}),
		stepAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_attempts_total",
			Help:      "Step attempts made, including retries.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Browser sessions currently open.",
		}),
		webhookDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries, by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status string, durationSeconds float64) {
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(durationSeconds)
}

// UnknownAction labels steps whose action is not one of the known actions.
const UnknownAction = "unknown"

// ObserveStep records a finished step and the attempts it took.
func (m *Metrics) ObserveStep(action step.Action, status step.Status, attempts int) {
	label := string(action)
	if !action.IsValid() {
		label = UnknownAction
	}
	m.steps.WithLabelValues(label, string(status)).Inc()
	m.stepAttempts.Add(float64(attempts))
}

// SetActiveSessions tracks the session registry size.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// ObserveDelivery records a webhook delivery outcome.
func (m *Metrics) ObserveDelivery(outcome string) {
	m.webhookDelivered.WithLabelValues(outcome).Inc()
}
