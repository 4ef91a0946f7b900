package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values shared by the counters below.
const (
	OutcomeSuccess     = "success"
	OutcomeConflict    = "conflict"
	OutcomeInvalid     = "invalid"
	OutcomeRenderError = "render_error"
	OutcomeStorage     = "storage_unavailable"
	OutcomeError       = "error"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so services
// can be built without a registry in tests.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	issuanceTotal    *prometheus.CounterVec
	issuanceAttempts prometheus.Histogram
	renderDuration   prometheus.Histogram
	verifyTotal      *prometheus.CounterVec
	selfHealTotal    *prometheus.CounterVec
	auditDropped     prometheus.Counter
}

// New registers all collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		issuanceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certificate_issuance_total",
				Help: "Issuance calls by outcome.",
			},
			[]string{"outcome"},
		),
		issuanceAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certificate_issuance_attempts",
			Help:    "Attempts used per successful or exhausted issuance.",
			Buckets: []float64{1, 2, 3, 5, 8},
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certificate_render_duration_seconds",
			Help:    "PDF render latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		verifyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certificate_verification_total",
				Help: "Public verification lookups by format and result.",
			},
			[]string{"format", "result"},
		),
		selfHealTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certificate_artifact_regeneration_total",
				Help: "Self-heal regenerations of missing or corrupt PDFs by reason and outcome.",
			},
			[]string{"reason", "outcome"},
		),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit events dropped because the queue was full.",
		}),
	}

	reg.MustRegister(
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.issuanceTotal, m.issuanceAttempts, m.renderDuration,
		m.verifyTotal, m.selfHealTotal, m.auditDropped,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

func (m *Metrics) RequestFinished(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func (m *Metrics) Issuance(outcome string, attempts int) {
	if m == nil {
		return
	}
	m.issuanceTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.issuanceAttempts.Observe(float64(attempts))
	}
}

func (m *Metrics) Render(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Verification(format, result string) {
	if m == nil {
		return
	}
	m.verifyTotal.WithLabelValues(format, result).Inc()
}

func (m *Metrics) SelfHeal(reason, outcome string) {
	if m == nil {
		return
	}
	m.selfHealTotal.WithLabelValues(reason, outcome).Inc()
}

func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
