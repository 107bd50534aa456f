package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Turn outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeApology  = "apology"
	OutcomeSilent   = "silent"
	// the turn panicked before finishing
	OutcomeError    = "error"
)

// Collaborator labels.
const (
	CollaboratorVAD      = "vad"
	CollaboratorSTT      = "stt"
	CollaboratorLLM      = "llm"
	CollaboratorTTS      = "tts"
	CollaboratorPlayback = "playback"
)

// Metrics is registered on a private registry. A nil *Metrics records
// nothing, which keeps tests and metric-less wiring simple.
type Metrics struct {
	registry       *prometheus.Registry
	turns          *prometheus.CounterVec
	failures       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	historyCleared prometheus.Counter
	captureDropped prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed turns by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Failed calls to external collaborators.",
		}, []string{"collaborator"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_latency_seconds",
			Help:      "Round-trip time of external collaborator calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"collaborator"}),
		historyCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_cleared_total",
			Help:      "Conversation memory clears, by timeout or request.",
		}),
		captureDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_dropped_chunks_total",
			Help:      "Audio chunks dropped because the capture queue was full.",
		}),
	}

	m.registry.MustRegister(m.turns, m.failures, m.latency, m.historyCleared, m.captureDropped)
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Turn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

// Call records one collaborator round trip.
func (m *Metrics) Call(collaborator string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(collaborator).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(collaborator).Inc()
	}
}

func (m *Metrics) HistoryCleared() {
	if m == nil {
		return
	}
	m.historyCleared.Inc()
}

func (m *Metrics) CaptureDropped() {
	if m == nil {
		return
	}
	m.captureDropped.Inc()
}

// RegisterGauge exposes a value sampled at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}
