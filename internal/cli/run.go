package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/metrics"
	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal      string
	MetricsAddr  string
	HoldPerMeter time.Duration
	Interactive  bool

	// Timer allows overriding the engine timer (for testing).
	// If nil, the engine uses the wall clock.
	Timer engine.Timer
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Session       string                `json:"session"`
	Schedule      model.Schedule        `json:"schedule"`
	Results       [][]model.Result      `json:"results"`
	Notifications []engine.Notification `json:"notifications"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Draw a race and run it",
		Long: `Draw a roster and schedule, then run every race of the schedule in order,
printing each ranking as it is decided.

With --interactive, commands are read from stdin, one per line:
  p  pause or resume
  r  reset the race
  s  start the race again
  n  draw a new roster and schedule
  q  quit

Example:
  derby run --seed 7
  derby run --hold-per-meter 0 --format json
  derby run --interactive --journal ./race.db --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.newFormatter(cmd).Fail(runRace(opts, cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default: in memory)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&opts.HoldPerMeter, "hold-per-meter", 0, "on-screen time per meter of distance")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "read commands from stdin")

	return cmd
}

// notes collects notifications. Text mode prints them from the render
// loop so they stay in order with the runs.
type notes struct {
	mu      sync.Mutex
	list    []engine.Notification
	printed int
}

func (n *notes) Notify(note engine.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, note)
}

// flush prints notifications not printed yet.
func (n *notes) flush(w io.Writer) {
	n.mu.Lock()
	pending := n.list[n.printed:]
	n.printed = len(n.list)
	n.mu.Unlock()

	for _, note := range pending {
		_ = writeNotification(w, note)
	}
}

func (n *notes) all() []engine.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]engine.Notification{}, n.list...)
}

// logAudio stands in for race audio on a terminal.
type logAudio struct{}

func (logAudio) Play()   { slog.Debug("audio", "action", "play") }
func (logAudio) Stop()   { slog.Debug("audio", "action", "stop") }
func (logAudio) Rewind() { slog.Debug("audio", "action", "rewind") }

func runRace(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal = opts.Journal
	}
	if cmd.Flags().Changed("hold-per-meter") {
		cfg.HoldPerMeter = opts.HoldPerMeter
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	slog.Debug("opening journal", "dsn", cfg.Journal)
	st, err := store.Open(cfg.Journal)
	if err != nil {
		return commandError(CodeJournal, "failed to open journal", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(ctx, opts.MetricsAddr, reg)
		if err != nil {
			return commandError(CodeMetrics, "failed to serve metrics", err)
		}
		defer stop()
	}

	formatter := opts.newFormatter(cmd)
	out := cmd.OutOrStdout()
	collected := &notes{}

	feed := engine.NewFeed()
	engOpts := append(cfg.EngineOptions(),
		engine.WithFeed(feed),
		engine.WithNotifier(collected),
		engine.WithRecorder(m),
		engine.WithJournal(st),
		engine.WithAudio(logAudio{}),
	)
	if opts.Timer != nil {
		engOpts = append(engOpts, engine.WithTimer(opts.Timer))
	}
	eng := engine.New(engOpts...)

	if err := eng.Init(); err != nil {
		return drawError(err)
	}
	// Init's own events are already shown by the schedule table.
	drainFeed(feed)

	snap := eng.Snapshot()
	if formatter.Format != "json" {
		if err := writeSchedule(out, snap.Schedule); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if err := eng.Start(ctx); err != nil {
		return raceFailure(CodeRunFailed, "failed to start race", err)
	}

	r := &renderer{
		eng:   eng,
		feed:  feed,
		notes: collected,
		out:   out,
		text:  formatter.Format != "json",
		runs:  len(snap.Schedule),
		state: engine.StateRunning,
	}
	var keys <-chan string
	if opts.Interactive {
		keyCtx, stopKeys := context.WithCancel(ctx)
		defer stopKeys()
		keys = readKeys(keyCtx, cmd.InOrStdin())
	}
	loopErr := r.loop(ctx, keys)

	// The run loop must not outlive the journal.
	if eng.State() == engine.StateRunning || eng.State() == engine.StatePaused {
		eng.Reset()
	}
	waitCtx, stopWait := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	_ = eng.Wait(waitCtx)
	stopWait()

	final := eng.Snapshot()
	if r.text {
		collected.flush(out)
	}
	if loopErr != nil {
		failed := raceFailure(CodeRunFailed, "race failed", loopErr)
		failed.Details = map[string]any{"session": final.Session, "error": loopErr.Error()}
		return failed
	}

	if formatter.Format == "json" {
		return formatter.Success(RunOutput{
			Session:       final.Session,
			Schedule:      final.Schedule,
			Results:       final.Results,
			Notifications: collected.all(),
		})
	}
	return nil
}

// renderer consumes the feed and applies interactive commands.
type renderer struct {
	eng   *engine.Engine
	feed  *engine.Feed
	notes *notes
	out   io.Writer
	text  bool
	runs  int
	state engine.State
}

// loop returns when the race finishes (without keys), on quit, on
// cancellation, or with an error when a run fails.
func (r *renderer) loop(ctx context.Context, keys <-chan string) error {
	interactive := keys != nil
	for {
		if err := r.drain(); err != nil {
			return err
		}
		if r.state == engine.StateFinished && keys == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("interrupted, stopping race")
			return nil
		case <-r.feed.Wait():
		case key, ok := <-keys:
			if !ok {
				// stdin closed: finish the current race, then exit.
				keys = nil
				snap := r.eng.Snapshot()
				if !snap.Running {
					return r.drain()
				}
				if snap.Paused {
					r.eng.TogglePause()
				}
				continue
			}
			if quit := r.apply(ctx, key); quit {
				return r.drain()
			}
		}

		if !interactive && r.state != engine.StateRunning && r.state != engine.StateFinished {
			return nil
		}
	}
}

// drain renders every pending event, then pending notifications.
func (r *renderer) drain() error {
	for {
		ev, ok := r.feed.TryNext()
		if !ok {
			break
		}
		if err := r.render(ev); err != nil {
			return err
		}
	}
	if r.text {
		r.notes.flush(r.out)
	}
	return nil
}

func (r *renderer) render(ev engine.Event) error {
	switch ev.Type {
	case engine.EventStarted, engine.EventResumed:
		r.state = engine.StateRunning
	case engine.EventPaused:
		r.state = engine.StatePaused
	case engine.EventFinished:
		r.state = engine.StateFinished
	case engine.EventReset, engine.EventRosterGenerated, engine.EventScheduleGenerated:
		r.state = engine.StateIdle
	case engine.EventFailed:
		if r.text {
			_ = writeEvent(r.out, ev, r.runs)
		}
		return errors.New(ev.Error)
	}

	if !r.text {
		return nil
	}
	if err := writeEvent(r.out, ev, r.runs); err != nil {
		return err
	}
	if ev.Type == engine.EventScheduleGenerated {
		return writeSchedule(r.out, r.eng.Snapshot().Schedule)
	}
	return nil
}

// apply runs one interactive command. Returns true on quit.
func (r *renderer) apply(ctx context.Context, key string) bool {
	switch key {
	case "q":
		return true
	case "p":
		r.eng.TogglePause()
	case "r":
		r.eng.Reset()
	case "s":
		if err := r.eng.Start(ctx); err != nil && !errors.Is(err, engine.ErrAlreadyRunning) {
			slog.Warn("start rejected", "error", err)
		}
	case "n":
		if err := r.eng.Init(); err != nil {
			slog.Warn("new draw rejected", "error", err)
			return false
		}
		r.runs = len(r.eng.Snapshot().Schedule)
	case "":
	default:
		if r.text {
			fmt.Fprintf(r.out, "unknown command %q (p, r, s, n, q)\n", key)
		}
	}
	return false
}

// readKeys delivers trimmed stdin lines until EOF or until ctx is done.
// A read already blocked on in ends at the next line or EOF.
func readKeys(ctx context.Context, in io.Reader) <-chan string {
	keys := make(chan string)
	go func() {
		defer close(keys)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case keys <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}

func drainFeed(feed *engine.Feed) {
	for {
		if _, ok := feed.TryNext(); !ok {
			return
		}
	}
}

// signalContext is cancelled on SIGINT/SIGTERM or when parent is done.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// serveMetrics serves /metrics on addr until stop is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("metrics listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
