package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/engine"
)

var _ engine.Recorder = (*Metrics)(nil)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RaceStarted()
	m.PauseToggled(true)
	m.PauseToggled(false)
	m.PauseToggled(true)
	m.RunCommitted(1200, 2*time.Second)
	m.RunCommitted(1400, 3*time.Second)
	m.ValidationFailed()

	out := scrape(t, reg)
	assert.Contains(t, out, "derby_races_started_total 1")
	assert.Contains(t, out, "derby_races_finished_total 0")
	assert.Contains(t, out, "derby_runs_committed_total 2")
	assert.Contains(t, out, "derby_validation_failures_total 1")
	assert.Contains(t, out, `derby_pause_toggles_total{state="paused"} 2`)
	assert.Contains(t, out, `derby_pause_toggles_total{state="running"} 1`)
	assert.Contains(t, out, "derby_paused 1")
	assert.Contains(t, out, "derby_run_hold_seconds_count 2")
	assert.Contains(t, out, "derby_run_hold_seconds_sum 5")
	assert.Contains(t, out, "derby_run_distance_meters_count 2")

	m.RaceFinished()
	out = scrape(t, reg)
	assert.Contains(t, out, "derby_races_finished_total 1")
	assert.Contains(t, out, "derby_paused 0")
}

func TestNew_NilRegisterer(t *testing.T) {
	m := New(nil)
	assert.NotPanics(t, func() {
		m.RaceStarted()
		m.PauseToggled(true)
	})
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestMetrics_AsEngineRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	e := engine.New(engine.WithRecorder(m), engine.WithTiming(0, 0))
	require.Error(t, e.Start(context.Background()), "no schedule yet")
	require.NoError(t, e.Init())
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Wait(context.Background()))

	out := scrape(t, reg)
	assert.Contains(t, out, "derby_validation_failures_total 1")
	assert.Contains(t, out, "derby_races_started_total 1")
	assert.Contains(t, out, "derby_races_finished_total 1")
	assert.Contains(t, out, "derby_runs_committed_total 6")
}
