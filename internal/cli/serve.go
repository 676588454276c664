package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/metrics"
	"github.com/roach88/derby/internal/server"
	"github.com/roach88/derby/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Journal string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the race to presentation clients",
		Long: `Serve a race engine over HTTP. Clients connect to /ws to receive every
engine event and notification, and send commands:

  {"command": "generate_roster", "count": 20}
  {"command": "generate_schedule"}
  {"command": "start"}
  {"command": "toggle_pause"}
  {"command": "reset"}

GET /state returns the current snapshot, GET /metrics the Prometheus metrics.

Example:
  derby serve --addr :8080
  derby serve --config race.cue --journal ./race.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.newFormatter(cmd).Fail(runServe(opts, cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (default: in memory)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = opts.Addr
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal = opts.Journal
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

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
	hub := server.NewHub()
	feed := engine.NewFeed()
	eng := engine.New(append(cfg.EngineOptions(),
		engine.WithFeed(feed),
		engine.WithNotifier(hub),
		engine.WithRecorder(metrics.New(reg)),
		engine.WithJournal(st),
		engine.WithAudio(logAudio{}),
	)...)
	if err := eng.Init(); err != nil {
		return drawError(err)
	}

	srv := server.New(eng, hub,
		server.WithMetrics(reg),
		server.WithRosterSize(cfg.RosterSize),
		server.WithBaseContext(ctx),
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving race on %s. Press Ctrl-C to stop.\n", cfg.Addr)
	runErr := srv.Run(ctx, cfg.Addr, feed)

	// The run loop must not outlive the journal.
	eng.Reset()

	if runErr != nil {
		return raceFailure(CodeServe, "server error", runErr)
	}
	slog.Info("server stopped gracefully")
	return nil
}
