package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics holds the poller and provider instruments. A nil *Metrics is a no-op.
type Metrics struct {
	fetchAttempts *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	fetchSkips    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	lastSuccess   *prometheus.GaugeVec
	unmatched     *prometheus.GaugeVec
	cbState       *prometheus.GaugeVec
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_fetch_attempts_total",
			Help: "Leaderboard fetches started, by tournament and source.",
		}, []string{"tournament", "source"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_fetch_failures_total",
			Help: "Leaderboard fetches that failed, by tournament and source.",
		}, []string{"tournament", "source"}),
		fetchSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_fetch_skips_total",
			Help: "Ticks skipped because a fetch was already in flight.",
		}, []string{"tournament", "source"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leaderboard_fetch_duration_seconds",
			Help:    "Histogram of leaderboard fetch durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leaderboard_last_success_timestamp_seconds",
			Help: "Unix time of the last successful fetch; snapshot age is now minus this.",
		}, []string{"tournament"}),
		unmatched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leaderboard_unmatched_players",
			Help: "Feed players not joined to an internal player in the last reconciliation.",
		}, []string{"tournament"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "provider_cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	reg.MustRegister(
		m.fetchAttempts,
		m.fetchFailures,
		m.fetchSkips,
		m.fetchDuration,
		m.lastSuccess,
		m.unmatched,
		m.cbState,
	)
	return m
}

func (m *Metrics) fetchStarted(tournamentID, source string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(tournamentID, source).Inc()
}

func (m *Metrics) fetchFinished(tournamentID, source string, took time.Duration, err error, at time.Time) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		m.fetchFailures.WithLabelValues(tournamentID, source).Inc()
		return
	}
	m.lastSuccess.WithLabelValues(tournamentID).Set(float64(at.Unix()))
}

func (m *Metrics) fetchSkipped(tournamentID, source string) {
	if m == nil {
		return
	}
	m.fetchSkips.WithLabelValues(tournamentID, source).Inc()
}

func (m *Metrics) setUnmatched(tournamentID string, count int) {
	if m == nil {
		return
	}
	m.unmatched.WithLabelValues(tournamentID).Set(float64(count))
}

func (m *Metrics) setBreakerState(target string, state gobreaker.State) {
	if m == nil {
		return
	}
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.cbState.WithLabelValues(target).Set(v)
}
