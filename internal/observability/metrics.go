// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wealth-planner/internal/domain"
)

// Simulation outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Simulation metrics
	SimulationsTotal   *prometheus.CounterVec
	PathsSimulated     prometheus.Counter
	SimulationDuration *prometheus.HistogramVec
	PersistFailures    *prometheus.CounterVec

	// Rescue metrics
	RescueGenerations prometheus.Counter

	// History metrics
	SnapshotsRecorded *prometheus.CounterVec

	// Goal metrics
	GoalsByStatus *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg gets a fresh registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "wealth_planner"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		SimulationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of goal simulations by outcome",
		}, []string{"outcome"}),
		PathsSimulated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "paths_total",
			Help:      "Total number of Monte Carlo paths simulated",
		}),
		SimulationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Simulation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_failures_total",
			Help:      "Total number of failed writes by record type",
		}, []string{"record"}),

		RescueGenerations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rescue",
			Name:      "generations_total",
			Help:      "Total number of rescue strategy sets generated",
		}),

		SnapshotsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "snapshots_total",
			Help:      "Total number of history snapshot attempts by result",
		}, []string{"result"}),

		GoalsByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "goals",
			Name:      "by_status",
			Help:      "Number of goals by status at the last dashboard computation",
		}, []string{"status"}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),

		registry: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSimulation records one goal simulation.
func (m *Metrics) RecordSimulation(outcome string, paths int, seconds float64) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(outcome).Inc()
	if paths > 0 {
		m.PathsSimulated.Add(float64(paths))
	}
	m.SimulationDuration.WithLabelValues("goal").Observe(seconds)
}

// RecordRescue records one rescue generation.
func (m *Metrics) RecordRescue(seconds float64) {
	if m == nil {
		return
	}
	m.RescueGenerations.Inc()
	m.SimulationDuration.WithLabelValues("rescue").Observe(seconds)
}

// RecordPersistFailure records a failed write of record ("simulation" or "snapshot").
func (m *Metrics) RecordPersistFailure(record string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(record).Inc()
}

// RecordSnapshot records a history snapshot attempt ("recorded", "duplicate" or "error").
func (m *Metrics) RecordSnapshot(result string) {
	if m == nil {
		return
	}
	m.SnapshotsRecorded.WithLabelValues(result).Inc()
}

// SetGoalStatusCounts updates the goals-by-status gauge.
func (m *Metrics) SetGoalStatusCounts(s domain.StatusSummary) {
	if m == nil {
		return
	}
	m.GoalsByStatus.WithLabelValues(string(domain.StatusOnTrack)).Set(float64(s.OnTrack))
	m.GoalsByStatus.WithLabelValues(string(domain.StatusMonitor)).Set(float64(s.Monitor))
	m.GoalsByStatus.WithLabelValues(string(domain.StatusAtRisk)).Set(float64(s.AtRisk))
}

// ObserveHTTP records HTTP request latency.
func (m *Metrics) ObserveHTTP(method, route string, code int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(seconds)
}
