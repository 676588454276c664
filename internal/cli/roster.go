package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/selector"
)

// RosterOptions holds flags for the roster command.
type RosterOptions struct {
	*RootOptions
	Count int
}

// NewRosterCommand creates the roster command.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RosterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Draw a roster of horses",
		Long: `Draw a roster of horses with unique names, conditions, silks and colors.

Example:
  derby roster --count 12 --seed 7
  derby roster --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.newFormatter(cmd).Fail(runRoster(opts, cmd))
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "number of horses (default: configured roster size)")

	return cmd
}

func runRoster(opts *RosterOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("count") {
		cfg.RosterSize = opts.Count
		// A roster on its own has no schedule to fill.
		cfg.Plan.Entrants = min(cfg.Plan.Entrants, max(opts.Count, 1))
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	eng := engine.New(cfg.EngineOptions()...)
	if err := eng.GenerateRoster(cfg.RosterSize); err != nil {
		return drawError(err)
	}

	horses := eng.Snapshot().Roster
	return opts.newFormatter(cmd).Render(horses, func(w io.Writer) error {
		return writeRoster(w, horses)
	})
}

// drawError maps a failed roster or schedule draw to an exit error.
func drawError(err error) error {
	if selector.IsCapacity(err) {
		return commandError(CodeCapacity, "not enough unique values", err)
	}
	return raceFailure(CodeDraw, "draw failed", err)
}
