package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/engine"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/seeded_full_race.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Final.Roster, second.Final.Roster)
	assert.Equal(t, first.Final.Results, second.Final.Results)
}

func TestRun_SeededTraceShape(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/seeded_full_race.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	var types []string
	for _, ev := range result.Trace {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		"roster_generated", "schedule_generated", "started",
		"run_committed", "run_committed", "run_committed",
		"run_committed", "run_committed", "run_committed",
		"finished",
	}, types)

	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	for _, ev := range result.Trace[3:9] {
		assert.Len(t, ev.Ranking, 10)
		assert.Equal(t, "race-1", ev.Session)
	}
}

func TestRun_UnexpectedStepError(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_schedule",
		Description: "start fails",
		Steps:       []Step{{Action: ActionStart}},
		Assertions:  []Assertion{{Type: AssertState, State: "idle"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0] start: unexpected error")
}

func TestRun_MissingExpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "roster_ok",
		Description: "roster succeeds",
		Steps:       []Step{{Action: ActionGenerateRoster, Count: 3, ExpectError: ErrClassCapacity}},
		Assertions:  []Assertion{{Type: AssertRosterUnique}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected capacity error, got none")
}

func TestRun_DefaultRosterSize(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_roster",
		Description: "count defaults",
		Steps:       []Step{{Action: ActionGenerateRoster}},
		Assertions:  []Assertion{{Type: AssertRosterUnique}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Final.Roster, engine.DefaultRosterSize)
}

func TestRun_InvalidFixture(t *testing.T) {
	scenario := &Scenario{
		Name:        "twins",
		Description: "duplicate names",
		Roster: []HorseFixture{
			{Name: "Twin", Condition: 10, Silks: []string{"#000001", "#000002"}, Color: colorFixture("#000001")},
			{Name: "Twin", Condition: 20, Silks: []string{"#000003", "#000004"}, Color: colorFixture("#000002")},
		},
		Steps:      []Step{{Action: ActionStart}},
		Assertions: []Assertion{{Type: AssertRosterUnique}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to install fixtures")
}

func TestRun_RaggedScheduleFixture(t *testing.T) {
	scenario := &Scenario{
		Name:        "ragged",
		Description: "second run is empty",
		Roster: []HorseFixture{
			{Name: "Ash", Condition: 10, Silks: []string{"#000001", "#000002"}, Color: colorFixture("#000001")},
			{Name: "Birch", Condition: 20, Silks: []string{"#000003", "#000004"}, Color: colorFixture("#000002")},
		},
		Schedule: []RunFixture{
			{Entrants: []int{0, 1}, Distance: 1000},
			{Entrants: []int{}, Distance: 1200},
		},
		Steps:      []Step{{Action: ActionStart}},
		Assertions: []Assertion{{Type: AssertRosterUnique}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 1: no entrants")
}

func TestErrorClass(t *testing.T) {
	assert.Equal(t, ErrClassAlreadyRunning, errorClass(engine.ErrAlreadyRunning))
	assert.Equal(t, ErrClassBusy, errorClass(engine.ErrBusy))
	assert.Equal(t, ErrClassValidation, errorClass(engine.NewValidationError("x")))
	assert.Equal(t, "", errorClass(engine.NewRunFailedError("s", 0, nil)))
}
