// Package telemetry holds the Prometheus metrics exported on /metrics.
// Labels are method/path/status, never tenant — high-cardinality tenant
// labels would make the metric unbounded under multi-tenant load.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var HTTPRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aac",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "path", "status"},
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "aac",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "path"},
)

var AuthzDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aac",
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Total number of authorization decisions, by outcome.",
	},
	[]string{"outcome"},
)

var TokensIssuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "aac",
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "Total number of tokens minted, by kind.",
	},
	[]string{"kind"},
)

var RefreshReuseDetectedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "aac",
		Subsystem: "sessions",
		Name:      "refresh_reuse_detected_total",
		Help:      "Total number of detected refresh-token reuse events.",
	},
)

var AuditQueueDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "aac",
		Subsystem: "audit",
		Name:      "queue_dropped_total",
		Help:      "Total number of audit events dropped because the recorder queue was full.",
	},
)

// All returns every metric this service exports, for registration against a
// prometheus.Registry at startup.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthzDecisionsTotal,
		TokensIssuedTotal,
		RefreshReuseDetectedTotal,
		AuditQueueDroppedTotal,
	}
}
