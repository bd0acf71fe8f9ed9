package observability

import (
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the panel.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	sessionEvents    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// panel metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panel_upstream_request_duration_seconds",
				Help:    "Duration of stock API calls by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_upstream_errors_total",
				Help: "Total failed stock API calls by operation and kind.",
			},
			[]string{"operation", "kind"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_view_submissions_total",
				Help: "Total view submissions by view and outcome.",
			},
			[]string{"view", "outcome"},
		),
		sessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_session_events_total",
				Help: "Total session slot writes by event.",
			},
			[]string{"event"},
		),
	}
}

// RecordUpstream records the duration of a stock API call.
func (m *Metrics) RecordUpstream(operation string, d time.Duration) {
	m.upstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
// kind is "retryable" or "terminal".
func (m *Metrics) IncrUpstreamError(operation, kind string) {
	m.upstreamErrors.WithLabelValues(operation, kind).Inc()
}

// IncrSubmission counts a view submission; outcome is "success" or "error".
func (m *Metrics) IncrSubmission(view, outcome string) {
	m.submissions.WithLabelValues(view, outcome).Inc()
}

// IncrSessionEvent counts a session slot write ("started" or "cleared").
func (m *Metrics) IncrSessionEvent(event string) {
	m.sessionEvents.WithLabelValues(event).Inc()
}

// Snapshot returns the counters served at GET /v1/metrics/panel.
func (m *Metrics) Snapshot() *domain.PanelMetrics {
	ok, failed := sumCounters(m.submissions, "outcome", "success"), sumCounters(m.submissions, "outcome", "error")

	snap := &domain.PanelMetrics{
		SubmissionsOK:     int64(ok),
		SubmissionsFailed: int64(failed),
		SessionsStarted:   int64(getCounterValue(m.sessionEvents, "started")),
		SessionsCleared:   int64(getCounterValue(m.sessionEvents, "cleared")),
		UpstreamErrors:    int64(sumCounters(m.upstreamErrors, "", "")),
	}
	if total := ok + failed; total > 0 {
		snap.FailureRate = failed / total
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounters adds every series of cv whose label name equals value.
// An empty name sums all series.
func sumCounters(cv *prometheus.CounterVec, name, value string) float64 {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		if name != "" && !hasLabel(m, name, value) {
			continue
		}
		total += m.Counter.GetValue()
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue() == value
		}
	}
	return false
}
