package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for custody checks.
type Metrics struct {
	// Roster fetching
	RequestsTotal  *prometheus.CounterVec
	RetriesTotal   *prometheus.CounterVec
	PagesFetched   prometheus.Counter
	RosterDuration prometheus.Histogram
	RosterSize     prometheus.Gauge

	// Resolution
	VerdictsTotal *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jailcheck_roster_requests_total",
			Help: "Requests sent to the jail roster service by phase and result",
		}, []string{"phase", "result"}), // phase: "session", "page"; result: "ok", "error"

		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jailcheck_roster_retries_total",
			Help: "Retried roster requests by phase",
		}, []string{"phase"}),

		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "jailcheck_roster_pages_fetched_total",
			Help: "Roster pages fetched and parsed",
		}),

		RosterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jailcheck_roster_fetch_duration_seconds",
			Help:    "Duration of a full roster fetch including session handshake",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		RosterSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jailcheck_roster_size",
			Help: "Inmate records in the most recent complete roster snapshot",
		}),

		VerdictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jailcheck_verdicts_total",
			Help: "Custody verdicts by outcome",
		}, []string{"outcome"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jailcheck_runs_total",
			Help: "Custody check runs by status",
		}, []string{"status"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jailcheck_run_duration_seconds",
			Help:    "Duration of a full custody check run",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// RecordRequest counts one request attempt.
func (m *Metrics) RecordRequest(phase string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RequestsTotal.WithLabelValues(phase, result).Inc()
}

// RecordRetry counts one retry of a request.
func (m *Metrics) RecordRetry(phase string) {
	if m != nil {
		m.RetriesTotal.WithLabelValues(phase).Inc()
	}
}

// RecordPage counts one parsed roster page.
func (m *Metrics) RecordPage() {
	if m != nil {
		m.PagesFetched.Inc()
	}
}

// ObserveRoster records a complete roster fetch.
func (m *Metrics) ObserveRoster(d time.Duration, size int) {
	if m != nil {
		m.RosterDuration.Observe(d.Seconds())
		m.RosterSize.Set(float64(size))
	}
}

// IncrementVerdict records a verdict outcome.
func (m *Metrics) IncrementVerdict(outcome string) {
	if m != nil {
		m.VerdictsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m != nil {
		m.RunsTotal.WithLabelValues(status).Inc()
		m.RunDuration.Observe(d.Seconds())
	}
}
