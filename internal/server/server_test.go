package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/metrics"
	"github.com/roach88/derby/internal/testutil"
)

type harness struct {
	engine *engine.Engine
	hub    *Hub
	server *httptest.Server
	reg    *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	feed := engine.NewFeed()
	hub := NewHub()
	eng := engine.New(
		engine.WithRand(testutil.NewRand(5)),
		engine.WithTimer(&testutil.InstantTimer{}),
		engine.WithFeed(feed),
		engine.WithNotifier(hub),
		engine.WithRecorder(metrics.New(reg)),
		engine.WithSessionGenerator(engine.NewSequenceGenerator("race")),
	)
	t.Cleanup(eng.Reset)

	srv := New(eng, hub, WithMetrics(reg), WithBaseContext(ctx), WithRosterSize(12))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	go hub.Run(ctx, feed)

	return &harness{engine: eng, hub: hub, server: ts, reg: reg}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The first message is always the current state.
	msg := read(t, conn)
	require.Equal(t, TypeState, msg.Type)
	require.NotNil(t, msg.State)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	for {
		msg := read(t, conn)
		if match(msg) {
			return msg
		}
	}
}

func replyTo(command string) func(Message) bool {
	return func(m Message) bool {
		return m.Command == command && (m.Type == TypeAck || m.Type == TypeError)
	}
}

func eventOf(typ engine.EventType) func(Message) bool {
	return func(m Message) bool {
		return m.Type == TypeEvent && m.Event != nil && m.Event.Type == typ
	}
}

func send(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Init())

	resp, err := http.Get(h.server.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap engine.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, engine.StateIdle, snap.State)
	assert.Len(t, snap.Roster, engine.DefaultRosterSize)
	assert.Len(t, snap.Schedule, 6)
}

func TestState_MethodNotAllowed(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.server.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWS_StartWithoutScheduleNotifies(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, Command{Command: CmdStart})

	note := readUntil(t, conn, func(m Message) bool { return m.Type == TypeNotification })
	assert.Equal(t, "No race schedule", note.Notification.Title)
	assert.Equal(t, engine.SeverityError, note.Notification.Severity)

	reply := readUntil(t, conn, replyTo(CmdStart))
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "VALIDATION")
}

func TestWS_FullRace(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, Command{Command: CmdGenerateRoster})
	assert.Equal(t, TypeAck, readUntil(t, conn, replyTo(CmdGenerateRoster)).Type)
	assert.Len(t, h.engine.Snapshot().Roster, 12)

	send(t, conn, Command{Command: CmdGenerateSchedule})
	assert.Equal(t, TypeAck, readUntil(t, conn, replyTo(CmdGenerateSchedule)).Type)

	send(t, conn, Command{Command: CmdStart})

	// The finish notification and the finished event travel separately, so
	// either may arrive first.
	var (
		committed []engine.Event
		finished  *engine.Event
		note      *engine.Notification
	)
	readUntil(t, conn, func(m Message) bool {
		switch {
		case m.Type == TypeEvent && m.Event.Type == engine.EventRunCommitted:
			committed = append(committed, *m.Event)
		case eventOf(engine.EventFinished)(m):
			finished = m.Event
		case m.Type == TypeNotification:
			note = m.Notification
		}
		return finished != nil && note != nil
	})
	assert.Equal(t, "race-1", finished.Session)
	assert.Equal(t, engine.SeveritySuccess, note.Severity)
	require.Len(t, committed, 6)
	for i, ev := range committed {
		assert.Equal(t, i, ev.Run)
		assert.Len(t, ev.Results, 10)
	}

	send(t, conn, Command{Command: CmdReset})
	readUntil(t, conn, eventOf(engine.EventReset))
	assert.Equal(t, engine.StateIdle, h.engine.State())
}

func TestWS_GenerateRosterCount(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, Command{Command: CmdGenerateRoster, Count: 4})
	readUntil(t, conn, replyTo(CmdGenerateRoster))
	assert.Len(t, h.engine.Snapshot().Roster, 4)

	send(t, conn, Command{Command: CmdGenerateRoster, Count: 500})
	reply := readUntil(t, conn, replyTo(CmdGenerateRoster))
	assert.Equal(t, TypeError, reply.Type)
}

func TestWS_TogglePauseOutsideRace(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, Command{Command: CmdTogglePause})
	reply := readUntil(t, conn, replyTo(CmdTogglePause))
	assert.Equal(t, TypeAck, reply.Type)
	require.NotNil(t, reply.Paused)
	assert.False(t, *reply.Paused)
}

func TestWS_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	send(t, conn, Command{Command: "gallop"})
	reply := readUntil(t, conn, replyTo("gallop"))
	assert.Equal(t, TypeError, reply.Type)
	assert.Contains(t, reply.Error, "unknown command")
}

func TestWS_BroadcastReachesEveryClient(t *testing.T) {
	h := newHarness(t)
	first := h.dial(t)
	second := h.dial(t)
	require.Eventually(t, func() bool { return h.hub.Clients() == 2 }, time.Second, time.Millisecond)

	send(t, first, Command{Command: CmdGenerateRoster, Count: 3})

	readUntil(t, first, eventOf(engine.EventRosterGenerated))
	readUntil(t, second, eventOf(engine.EventRosterGenerated))
}

func TestWS_ClientDisconnectUnregisters(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	require.Eventually(t, func() bool { return h.hub.Clients() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.hub.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Init())
	require.NoError(t, h.engine.Start(context.Background()))
	require.NoError(t, h.engine.Wait(context.Background()))

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body strings.Builder
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "derby_races_finished_total 1")
}

func TestHub_RunStopsWhenFeedClosed(t *testing.T) {
	hub := NewHub()
	feed := engine.NewFeed()
	feed.Publish(engine.Event{Seq: 1, Type: engine.EventStarted})
	feed.Close()

	done := make(chan struct{})
	go func() {
		hub.Run(context.Background(), feed)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after feed closed")
	}
	assert.Zero(t, feed.Len())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	hub := NewHub()
	srv := New(engine.New(engine.WithNotifier(hub)), hub)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, "127.0.0.1:0", engine.NewFeed()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
