package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/derby/internal/model"
)

// Scenario defines a race scenario.
// Scenarios drive a real engine through a list of steps and assert on the
// resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Seed feeds the random source used for roster and schedule draws.
	Seed uint64 `yaml:"seed"`

	// SessionPrefix prefixes session tokens. Defaults to "race".
	SessionPrefix string `yaml:"session_prefix,omitempty"`

	// Roster is an optional fixed roster. Horse IDs follow list order.
	Roster []HorseFixture `yaml:"roster,omitempty"`

	// Schedule is an optional fixed schedule over Roster.
	Schedule []RunFixture `yaml:"schedule,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// HorseFixture is one horse of a fixed roster.
type HorseFixture struct {
	Name      string          `yaml:"name"`
	Condition int             `yaml:"condition"`
	Silks     []string        `yaml:"silks"`
	Color     model.BodyColor `yaml:"color"`
}

// RunFixture is one run of a fixed schedule.
type RunFixture struct {
	Entrants []int `yaml:"entrants"`
	Distance int   `yaml:"distance"`
}

// Step is one engine command.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Count is the roster size for generate_roster.
	Count int `yaml:"count,omitempty"`

	// ExpectError names the error class the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step actions.
const (
	ActionGenerateRoster   = "generate_roster"
	ActionGenerateSchedule = "generate_schedule"
	ActionStart            = "start"
	ActionTogglePause      = "toggle_pause"
	ActionReset            = "reset"
	ActionWaitFinished     = "wait_finished"
)

// Expected error classes.
const (
	ErrClassValidation     = "validation"
	ErrClassAlreadyRunning = "already_running"
	ErrClassBusy           = "busy"
	ErrClassCapacity       = "capacity"
)

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "ranking": horse IDs of run Run, best first
	// - "state": final State and, if set, the number of committed Results
	// - "notifications": Count notifications, of Severity if set
	// - "roster_unique": the final roster has no shared attribute
	// - "journal": the journal recorded exactly States
	Type string `yaml:"type"`

	// Run is the run index (used by ranking).
	Run int `yaml:"run,omitempty"`

	// Horses is the expected ranking (used by ranking).
	Horses []int `yaml:"horses,omitempty"`

	// State is the expected final state (used by state).
	State string `yaml:"state,omitempty"`

	// Results is the expected number of committed runs (used by state).
	Results *int `yaml:"results,omitempty"`

	// Count is the expected number of notifications (used by notifications).
	Count int `yaml:"count,omitempty"`

	// Severity filters notifications (used by notifications).
	Severity string `yaml:"severity,omitempty"`

	// States is the expected transition list (used by journal).
	States []string `yaml:"states,omitempty"`
}

// Assertion type constants.
const (
	AssertRanking       = "ranking"
	AssertState         = "state"
	AssertNotifications = "notifications"
	AssertRosterUnique  = "roster_unique"
	AssertJournal       = "journal"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// LoadDir loads every scenario in dir.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := FindScenarios(dir, "")
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(files))
	for _, path := range files {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML files in dir, sorted by name. If filter is
// non-empty only files whose name, without extension, matches the glob are
// returned.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(name, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, h := range s.Roster {
		if len(h.Silks) != 2 {
			return fmt.Errorf("roster[%d]: silks needs exactly 2 colors, got %d", i, len(h.Silks))
		}
	}

	if len(s.Schedule) > 0 && len(s.Roster) == 0 {
		return fmt.Errorf("schedule requires a roster")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	switch step.Action {
	case ActionGenerateRoster, ActionGenerateSchedule, ActionStart,
		ActionTogglePause, ActionReset, ActionWaitFinished:
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}

	if step.Count < 0 {
		return fmt.Errorf("steps[%d]: count must not be negative", index)
	}

	switch step.ExpectError {
	case "", ErrClassValidation, ErrClassAlreadyRunning, ErrClassBusy, ErrClassCapacity:
	default:
		return fmt.Errorf("steps[%d]: unknown expect_error %q", index, step.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRanking:
		if len(a.Horses) == 0 {
			return fmt.Errorf("assertions[%d]: horses list is required for ranking", index)
		}
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	case AssertNotifications, AssertRosterUnique:
	case AssertJournal:
		if len(a.States) == 0 {
			return fmt.Errorf("assertions[%d]: states list is required for journal", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// roster converts the roster fixture.
func (s *Scenario) roster() []model.Horse {
	horses := make([]model.Horse, len(s.Roster))
	for i, h := range s.Roster {
		horses[i] = model.Horse{
			ID:        i,
			Name:      h.Name,
			Condition: h.Condition,
			Silks:     model.SilkPair{h.Silks[0], h.Silks[1]},
			Color:     h.Color,
		}
	}
	return horses
}

// schedule converts the schedule fixture over horses.
func (s *Scenario) schedule(horses []model.Horse) (model.Schedule, error) {
	sched := make(model.Schedule, len(s.Schedule))
	for i, run := range s.Schedule {
		entrants := make([]model.Horse, len(run.Entrants))
		for j, id := range run.Entrants {
			if id < 0 || id >= len(horses) {
				return nil, fmt.Errorf("schedule[%d]: unknown horse %d", i, id)
			}
			entrants[j] = horses[id]
		}
		sched[i] = model.Run{Entrants: entrants, Distance: run.Distance}
	}
	return sched, nil
}
