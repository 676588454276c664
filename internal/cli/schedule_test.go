package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/schedule"
)

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestScheduleCommand_JSON(t *testing.T) {
	out, err := execute(t, "schedule", "--seed", "3", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ScheduleOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	plan := schedule.DefaultPlan()
	assert.Len(t, resp.Data.Roster, 20)
	require.Len(t, resp.Data.Schedule, plan.Runs)
	for i, run := range resp.Data.Schedule {
		assert.Len(t, run.Entrants, plan.Entrants)
		assert.Equal(t, plan.Distances[i], run.Distance)
	}
	assert.NoError(t, schedule.Check(resp.Data.Roster, resp.Data.Schedule))
}

func TestScheduleCommand_Text(t *testing.T) {
	out, err := execute(t, "schedule", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "1200m")
	assert.Contains(t, out, "2200m")
}

func TestScheduleCommand_InvalidSettings(t *testing.T) {
	_, err := execute(t, "schedule", "--config", "/nonexistent/race.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
