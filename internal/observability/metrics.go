package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ent0n29/coachvoice/internal/reliability"
	"github.com/ent0n29/coachvoice/internal/voice"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	Utterances       *prometheus.CounterVec
	CaptureErrors    *prometheus.CounterVec
	Dispatches       *prometheus.CounterVec
	DispatchLatency  prometheus.Histogram
	SanitizeRequests prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active voice sessions.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		Utterances: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Finished utterances by role and outcome.",
		}, []string{"role", "outcome"}),
		CaptureErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Speech capture errors by class.",
		}, []string{"class"}),
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Assistant message dispatches by outcome.",
		}, []string{"outcome"}),
		DispatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_latency_ms",
			Help:      "Latency of assistant replies in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		}),
		SanitizeRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sanitize_requests_total",
			Help:      "Speech sanitize preview requests.",
		}),
	}
}

func (m *Metrics) UtteranceFinished(role voice.Role, outcome string) {
	m.Utterances.WithLabelValues(string(role), outcome).Inc()
}

func (m *Metrics) CaptureFailed(class reliability.Class) {
	m.CaptureErrors.WithLabelValues(string(class)).Inc()
}

func (m *Metrics) DispatchFinished(outcome string, elapsed time.Duration) {
	m.Dispatches.WithLabelValues(outcome).Inc()
	m.DispatchLatency.Observe(float64(elapsed.Milliseconds()))
}

// Handler serves the metrics of this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
