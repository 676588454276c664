// Package server exposes a race over HTTP: health and state endpoints,
// Prometheus metrics, and a WebSocket that streams engine events and
// accepts race commands.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/metrics"
)

// Commands accepted over /ws.
const (
	CmdGenerateRoster   = "generate_roster"
	CmdGenerateSchedule = "generate_schedule"
	CmdStart            = "start"
	CmdTogglePause      = "toggle_pause"
	CmdReset            = "reset"
)

// Command is a client request. Count applies to generate_roster; zero uses
// the server's roster size.
type Command struct {
	Command string `json:"command"`
	Count   int    `json:"count,omitempty"`
}

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxMessageSize  = 4096
	shutdownTimeout = 5 * time.Second
)

// Server serves one engine.
type Server struct {
	engine     *engine.Engine
	hub        *Hub
	gatherer   prometheus.Gatherer
	rosterSize int
	base       context.Context
	upgrader   websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRosterSize sets the roster size for generate_roster without a count.
func WithRosterSize(n int) Option {
	return func(s *Server) { s.rosterSize = n }
}

// WithBaseContext sets the context races started over /ws run under.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) { s.base = ctx }
}

// New creates a server for eng. The hub should also be the engine's
// notifier so notifications reach clients.
func New(eng *engine.Engine, hub *Hub, opts ...Option) *Server {
	s := &Server{
		engine:     eng,
		hub:        hub,
		rosterSize: engine.DefaultRosterSize,
		base:       context.Background(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Presentation clients are served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.gatherer))
	}
	return mux
}

// Run serves on addr until ctx is done, then shuts down gracefully. The
// feed is drained to clients for the life of the server.
func (s *Server) Run(ctx context.Context, addr string, feed *engine.Feed) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, feed)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, feed *engine.Feed) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.hub.Run(hubCtx, feed)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := s.hub.register()
	snap := s.engine.Snapshot()
	s.hub.reply(c, Message{Type: TypeState, State: &snap})

	slog.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", s.hub.Clients())

	go s.writePump(conn, c)
	s.readPump(conn, c)
}

// readPump applies client commands until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		s.hub.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}
		s.hub.reply(c, s.apply(cmd))
	}
}

// writePump sends queued messages and keepalive pings. It owns all writes
// to conn.
func (s *Server) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// apply runs one command against the engine and returns the reply.
func (s *Server) apply(cmd Command) Message {
	var err error
	reply := Message{Type: TypeAck, Command: cmd.Command}

	switch cmd.Command {
	case CmdGenerateRoster:
		count := cmd.Count
		if count == 0 {
			count = s.rosterSize
		}
		err = s.engine.GenerateRoster(count)
	case CmdGenerateSchedule:
		err = s.engine.GenerateSchedule()
	case CmdStart:
		err = s.engine.Start(s.base)
	case CmdTogglePause:
		paused := s.engine.TogglePause()
		reply.Paused = &paused
	case CmdReset:
		s.engine.Reset()
	default:
		err = fmt.Errorf("unknown command %q", cmd.Command)
	}

	if err != nil {
		slog.Debug("command failed", "command", cmd.Command, "error", err)
		return Message{Type: TypeError, Command: cmd.Command, Error: err.Error()}
	}
	return reply
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
