// Package metrics provides Prometheus metrics for race execution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "derby"

// Metrics holds the race metrics. It implements engine.Recorder.
type Metrics struct {
	// Race lifecycle
	RacesStarted  prometheus.Counter
	RacesFinished prometheus.Counter
	Paused        prometheus.Gauge
	PauseToggles  *prometheus.CounterVec

	// Runs
	RunsCommitted prometheus.Counter
	RunHold       prometheus.Histogram
	RunDistance   prometheus.Histogram

	// Commands
	ValidationFailures prometheus.Counter
}

// New creates the race metrics and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RacesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "races_started_total",
			Help:      "Total number of races started",
		}),
		RacesFinished: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "races_finished_total",
			Help:      "Total number of races that ran every scheduled run",
		}),
		Paused: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "paused",
			Help:      "1 while the running race is paused",
		}),
		PauseToggles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pause_toggles_total",
			Help:      "Total number of pause toggles by resulting state",
		}, []string{"state"}),
		RunsCommitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_committed_total",
			Help:      "Total number of runs whose results were committed",
		}),
		RunHold: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_hold_seconds",
			Help:      "Configured on-screen hold of committed runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 3, 4, 5, 10, 30},
		}),
		RunDistance: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_distance_meters",
			Help:      "Distance of committed runs in meters",
			Buckets:   prometheus.LinearBuckets(1200, 200, 6),
		}),
		ValidationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of commands rejected for unmet preconditions",
		}),
	}
}

// RaceStarted records a successful start.
func (m *Metrics) RaceStarted() {
	m.RacesStarted.Inc()
	m.Paused.Set(0)
}

// RaceFinished records a race reaching its last run.
func (m *Metrics) RaceFinished() {
	m.RacesFinished.Inc()
	m.Paused.Set(0)
}

// RunCommitted records a committed run.
func (m *Metrics) RunCommitted(distance int, hold time.Duration) {
	m.RunsCommitted.Inc()
	m.RunHold.Observe(hold.Seconds())
	m.RunDistance.Observe(float64(distance))
}

// PauseToggled records a pause or resume.
func (m *Metrics) PauseToggled(paused bool) {
	if paused {
		m.PauseToggles.WithLabelValues("paused").Inc()
		m.Paused.Set(1)
		return
	}
	m.PauseToggles.WithLabelValues("running").Inc()
	m.Paused.Set(0)
}

// ValidationFailed records a rejected command.
func (m *Metrics) ValidationFailed() {
	m.ValidationFailures.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
