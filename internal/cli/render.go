package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeRoster prints one line per horse.
func writeRoster(w io.Writer, horses []model.Horse) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCONDITION\tSILKS\tCOLOR")
	for _, h := range horses {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s/%s\t%s (%s)\n",
			h.ID, h.Name, h.Condition, h.Silks[0], h.Silks[1], h.Color.Label, h.Color.Value)
	}
	return tw.Flush()
}

// writeSchedule prints one line per run.
func writeSchedule(w io.Writer, sched model.Schedule) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "RUN\tDISTANCE\tENTRANTS")
	for i, run := range sched {
		names := make([]string, len(run.Entrants))
		for j, h := range run.Entrants {
			names[j] = h.Name
		}
		fmt.Fprintf(tw, "%d\t%dm\t%s\n", i+1, run.Distance, strings.Join(names, ", "))
	}
	return tw.Flush()
}

// writeRun prints the ranking of one committed run.
func writeRun(w io.Writer, run, runs, distance int, results []model.Result) error {
	fmt.Fprintf(w, "Run %d of %d (%dm)\n", run+1, runs, distance)
	tw := newTable(w)
	for place, r := range results {
		fmt.Fprintf(tw, "  %d.\t%s\t%.1f\t%s\n", place+1, r.Horse.Name, r.Score, r.Speed)
	}
	return tw.Flush()
}

// writeEvent prints a feed event for humans. runs is the schedule length.
func writeEvent(w io.Writer, ev engine.Event, runs int) error {
	switch ev.Type {
	case engine.EventStarted:
		_, err := fmt.Fprintf(w, "Race started (session %s)\n", ev.Session)
		return err
	case engine.EventPaused:
		_, err := fmt.Fprintf(w, "Paused at run %d\n", ev.Run+1)
		return err
	case engine.EventResumed:
		_, err := fmt.Fprintln(w, "Resumed")
		return err
	case engine.EventRunCommitted:
		return writeRun(w, ev.Run, runs, ev.Distance, ev.Results)
	case engine.EventReset:
		_, err := fmt.Fprintln(w, "Race reset")
		return err
	case engine.EventFailed:
		_, err := fmt.Fprintf(w, "Run %d failed: %s\n", ev.Run+1, ev.Error)
		return err
	case engine.EventRosterGenerated:
		_, err := fmt.Fprintln(w, "New roster drawn")
		return err
	case engine.EventScheduleGenerated:
		_, err := fmt.Fprintln(w, "New schedule drawn")
		return err
	}
	// Finished is reported by its notification.
	return nil
}

// writeNotification prints a toast as a single line.
func writeNotification(w io.Writer, n engine.Notification) error {
	line := fmt.Sprintf("[%s] %s", n.Severity, n.Title)
	if n.Detail != "" {
		line += ": " + n.Detail
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
