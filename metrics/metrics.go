// Package metrics exposes Prometheus collectors for the gateway client:
// connection and handshake outcomes, operation outcomes and latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by all counters.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ClientMetrics holds the collectors for one client process. Each instance
// owns its registry so tests never collide on global state.
type ClientMetrics struct {
	registry *prometheus.Registry

	connects   *prometheus.CounterVec
	handshakes *prometheus.CounterVec
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// New creates the collectors under the given namespace and registers the
// standard process and Go runtime collectors alongside them.
func New(namespace string) *ClientMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ClientMetrics{
		registry: reg,
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connection attempts by outcome.",
		}, []string{"outcome"}),
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Authentication handshakes by outcome.",
		}, []string{"outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Correlated operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Settlement latency of correlated operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.connects, m.handshakes, m.operations, m.latency)
	return m
}

// ObserveConnect records one connection attempt.
func (m *ClientMetrics) ObserveConnect(outcome string) {
	m.connects.WithLabelValues(outcome).Inc()
}

// ObserveHandshake records one handshake result.
func (m *ClientMetrics) ObserveHandshake(outcome string) {
	m.handshakes.WithLabelValues(outcome).Inc()
}

// ObserveOperation records one settled operation and its latency.
func (m *ClientMetrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves the metrics in Prometheus exposition format.
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test gathering.
func (m *ClientMetrics) Registry() *prometheus.Registry { return m.registry }

// RegisterRoutes mounts the exposition endpoint on a status server router.
func (m *ClientMetrics) RegisterRoutes(r chi.Router) {
	r.Method(http.MethodGet, "/metrics", m.Handler())
}
