package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/selector"
	"github.com/roach88/derby/internal/store"
	"github.com/roach88/derby/internal/testutil"
)

// DefaultSessionPrefix prefixes session tokens when a scenario names none.
const DefaultSessionPrefix = "race"

// DefaultWaitTimeout bounds a wait_finished step.
const DefaultWaitTimeout = 10 * time.Second

// Harness is the scenario execution engine.
// It runs scenarios with a seeded random source, sequential session tokens
// and a timer that never sleeps.
type Harness struct {
	engine *engine.Engine
	feed   *engine.Feed

	mu            sync.Mutex
	notifications []engine.Notification
}

// Notify implements engine.Notifier.
func (h *Harness) Notify(n engine.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, n)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine journalled to a fresh in-memory
// database.
//
// Execution flow:
// 1. Create fresh in-memory journal and engine
// 2. Install the roster and schedule fixtures, if any
// 3. Execute steps, checking expected errors
// 4. Collect the feed trace and evaluate assertions
//
// Returns an error only when the scenario cannot be set up; step and
// assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	prefix := scenario.SessionPrefix
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}

	h := &Harness{feed: engine.NewFeed()}
	h.engine = engine.New(
		engine.WithRand(testutil.NewRand(scenario.Seed)),
		engine.WithTimer(&testutil.InstantTimer{}),
		engine.WithFeed(h.feed),
		engine.WithNotifier(h),
		engine.WithJournal(st),
		engine.WithSessionGenerator(engine.NewSequenceGenerator(prefix)),
	)

	ctx := context.Background()

	if err := h.installFixtures(scenario); err != nil {
		return nil, fmt.Errorf("failed to install fixtures: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if msg := h.executeStep(ctx, step); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Action, msg))
		}
	}

	h.collect(result)

	actx := &AssertionContext{Ctx: ctx, Store: st}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	// A loop left running must not outlive the store.
	if result.Final.Running {
		h.engine.Reset()
	}
	wctx, cancel := context.WithTimeout(ctx, DefaultWaitTimeout)
	defer cancel()
	_ = h.engine.Wait(wctx)

	return result, nil
}

func (h *Harness) installFixtures(s *Scenario) error {
	if len(s.Roster) == 0 {
		return nil
	}
	horses := s.roster()
	if err := h.engine.SetRoster(horses); err != nil {
		return err
	}

	if len(s.Schedule) == 0 {
		return nil
	}
	sched, err := s.schedule(horses)
	if err != nil {
		return err
	}
	return h.engine.SetSchedule(sched)
}

// executeStep runs one step. Returns a failure message, or "" on success.
func (h *Harness) executeStep(ctx context.Context, step Step) string {
	var err error
	switch step.Action {
	case ActionGenerateRoster:
		count := step.Count
		if count == 0 {
			count = engine.DefaultRosterSize
		}
		err = h.engine.GenerateRoster(count)
	case ActionGenerateSchedule:
		err = h.engine.GenerateSchedule()
	case ActionStart:
		err = h.engine.Start(ctx)
	case ActionTogglePause:
		h.engine.TogglePause()
	case ActionReset:
		h.engine.Reset()
	case ActionWaitFinished:
		wctx, cancel := context.WithTimeout(ctx, DefaultWaitTimeout)
		err = h.engine.Wait(wctx)
		cancel()
	}

	return checkError(err, step.ExpectError)
}

func checkError(err error, want string) string {
	if want == "" {
		if err != nil {
			return fmt.Sprintf("unexpected error: %v", err)
		}
		return ""
	}
	if err == nil {
		return fmt.Sprintf("expected %s error, got none", want)
	}
	if class := errorClass(err); class != want {
		return fmt.Sprintf("expected %s error, got %v", want, err)
	}
	return ""
}

// errorClass maps an engine error to its expect_error name.
func errorClass(err error) string {
	switch {
	case errors.Is(err, engine.ErrAlreadyRunning):
		return ErrClassAlreadyRunning
	case errors.Is(err, engine.ErrBusy):
		return ErrClassBusy
	case selector.IsCapacity(err):
		return ErrClassCapacity
	case engine.IsValidation(err):
		return ErrClassValidation
	default:
		return ""
	}
}

// collect drains the feed and records the final state.
func (h *Harness) collect(result *Result) {
	for {
		ev, ok := h.feed.TryNext()
		if !ok {
			break
		}
		result.Trace = append(result.Trace, traceEvent(ev))
	}

	h.mu.Lock()
	result.Notifications = append(result.Notifications, h.notifications...)
	h.mu.Unlock()

	result.Final = h.engine.Snapshot()
}
