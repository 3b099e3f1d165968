package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus metrics. Feature packages keep
// their own metrics structs alongside their services.
type Metrics struct {
	RequestDuration    *prometheus.HistogramVec
	UnauthorizedTotal  prometheus.Counter
	SessionsCreated    prometheus.Counter
	SessionsRevoked    prometheus.Counter
	AuditEventsEmitted prometheus.Counter
	AuditPublishErrors prometheus.Counter
	AnalysisRequests   prometheus.Counter
	AnalysisFailures   prometheus.Counter
	ExportRowsRendered prometheus.Counter
}

// New creates and registers all process-wide Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "odonto_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		UnauthorizedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_unauthorized_total",
			Help: "Total mutations rejected by the permission engine.",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_sessions_created_total",
			Help: "Total sessions created at login.",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_sessions_revoked_total",
			Help: "Total sessions revoked at logout or expiry.",
		}),
		AuditEventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_audit_events_emitted_total",
			Help: "Total audit events emitted by domain services.",
		}),
		AuditPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_audit_publish_errors_total",
			Help: "Total audit events that failed to publish.",
		}),
		AnalysisRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_analysis_requests_total",
			Help: "Total case-analysis pass-through requests.",
		}),
		AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_analysis_failures_total",
			Help: "Total case-analysis requests that failed in transport.",
		}),
		ExportRowsRendered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_export_rows_rendered_total",
			Help: "Total CSV rows rendered by the export service.",
		}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}

// IncrementUnauthorized increments the permission-denied counter by 1.
func (m *Metrics) IncrementUnauthorized() {
	m.UnauthorizedTotal.Inc()
}
