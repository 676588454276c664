package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/roster"
	"github.com/roach88/derby/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Type)
			if event.Type == "run_committed" {
				fmt.Fprintf(&buf, " run=%d horses=%v", event.Run, placingIDs(event.Ranking))
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

func placingIDs(ps []Placing) []int {
	ids := make([]int, len(ps))
	for i, p := range ps {
		ids[i] = p.Horse
	}
	return ids
}

// assertRanking checks the committed ranking of one run.
func assertRanking(result *Result, assertion Assertion) error {
	results := result.Final.Results
	if assertion.Run < 0 || assertion.Run >= len(results) {
		return &AssertionError{
			Type:     AssertRanking,
			Expected: fmt.Sprintf("run %d committed with horses %v", assertion.Run, assertion.Horses),
			Actual:   fmt.Sprintf("%d runs committed", len(results)),
			Trace:    result.Trace,
		}
	}

	got := model.IDs(results[assertion.Run])
	if !slices.Equal(got, assertion.Horses) {
		return &AssertionError{
			Type:     AssertRanking,
			Expected: fmt.Sprintf("run %d ranked %v", assertion.Run, assertion.Horses),
			Actual:   fmt.Sprintf("run %d ranked %v", assertion.Run, got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertState checks the final phase and, optionally, the committed run count.
func assertState(result *Result, assertion Assertion) error {
	state := result.Final.State.String()
	if state != assertion.State {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("state %s", assertion.State),
			Actual:   fmt.Sprintf("state %s", state),
			Trace:    result.Trace,
		}
	}

	if assertion.Results != nil && len(result.Final.Results) != *assertion.Results {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%d committed runs", *assertion.Results),
			Actual:   fmt.Sprintf("%d committed runs", len(result.Final.Results)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertNotifications counts notifications, optionally of one severity.
func assertNotifications(result *Result, assertion Assertion) error {
	count := 0
	for _, n := range result.Notifications {
		if assertion.Severity == "" || string(n.Severity) == assertion.Severity {
			count++
		}
	}

	if count != assertion.Count {
		what := "notifications"
		if assertion.Severity != "" {
			what = assertion.Severity + " notifications"
		}
		return &AssertionError{
			Type:     AssertNotifications,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
		}
	}
	return nil
}

// assertRosterUnique checks the final roster shares no attribute.
func assertRosterUnique(result *Result) error {
	if err := roster.Validate(result.Final.Roster); err != nil {
		return &AssertionError{
			Type:     AssertRosterUnique,
			Expected: "roster with unique attributes",
			Actual:   err.Error(),
		}
	}
	return nil
}

// assertJournal reads the recorded transitions of the final session.
func assertJournal(ctx context.Context, st *store.Store, result *Result, assertion Assertion) error {
	var states []string
	if session := result.Final.Session; session != "" {
		transitions, err := st.ReadTransitions(ctx, session)
		if err != nil {
			return fmt.Errorf("journal: failed to read transitions: %w", err)
		}
		for _, t := range transitions {
			states = append(states, t.State)
		}
	}

	if !slices.Equal(states, assertion.States) {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("transitions %v", assertion.States),
			Actual:   fmt.Sprintf("transitions %v", states),
			Trace:    result.Trace,
		}
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for journal assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRanking:
			err = assertRanking(result, assertion)
		case AssertState:
			err = assertState(result, assertion)
		case AssertNotifications:
			err = assertNotifications(result, assertion)
		case AssertRosterUnique:
			err = assertRosterUnique(result)
		case AssertJournal:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal requires database context", i)
			} else {
				err = assertJournal(actx.Ctx, actx.Store, result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
