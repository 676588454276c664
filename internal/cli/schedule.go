package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/model"
)

// ScheduleOutput is the JSON payload of the schedule command.
type ScheduleOutput struct {
	Roster   []model.Horse  `json:"roster"`
	Schedule model.Schedule `json:"schedule"`
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Draw a roster and a schedule of runs",
		Long: `Draw a roster and a schedule of runs over it, using the configured
roster size, number of runs, entrants per run and distances.

Example:
  derby schedule --seed 7
  derby schedule --config race.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.newFormatter(cmd).Fail(runSchedule(rootOpts, cmd))
		},
	}

	return cmd
}

func runSchedule(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	eng := engine.New(cfg.EngineOptions()...)
	if err := eng.Init(); err != nil {
		return drawError(err)
	}

	snap := eng.Snapshot()
	out := ScheduleOutput{Roster: snap.Roster, Schedule: snap.Schedule}
	return opts.newFormatter(cmd).Render(out, func(w io.Writer) error {
		if err := writeRoster(w, out.Roster); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return writeSchedule(w, out.Schedule)
	})
}
