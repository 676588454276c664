package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/testutil"
)

// stable builds a valid roster with the given conditions, IDs in order.
func stable(conditions ...int) []model.Horse {
	horses := make([]model.Horse, len(conditions))
	for i, c := range conditions {
		horses[i] = model.Horse{
			ID:        i,
			Name:      fmt.Sprintf("Horse %d", i),
			Condition: c,
			Silks:     model.SilkPair{fmt.Sprintf("#%06X", i), fmt.Sprintf("#%06X", 0xFFFFFF-i)},
			Color:     model.BodyColor{Label: fmt.Sprintf("Color %d", i), Value: fmt.Sprintf("#%06X", 0x100000+i)},
		}
	}
	return horses
}

// singleHeat schedules every horse in one run per distance.
func singleHeat(horses []model.Horse, distances ...int) model.Schedule {
	sched := make(model.Schedule, len(distances))
	for i, d := range distances {
		sched[i] = model.Run{Entrants: append([]model.Horse(nil), horses...), Distance: d}
	}
	return sched
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}

type recordingAudio struct {
	mu    sync.Mutex
	calls []string
}

func (a *recordingAudio) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *recordingAudio) Play()   { a.record("play") }
func (a *recordingAudio) Stop()   { a.record("stop") }
func (a *recordingAudio) Rewind() { a.record("rewind") }

func (a *recordingAudio) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

type countingRecorder struct {
	mu         sync.Mutex
	started    int
	finished   int
	runs       []int
	holds      []time.Duration
	toggles    []bool
	rejections int
	panicOnRun bool
}

func (r *countingRecorder) RaceStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) RaceFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func (r *countingRecorder) RunCommitted(distance int, hold time.Duration) {
	r.mu.Lock()
	r.runs = append(r.runs, distance)
	r.holds = append(r.holds, hold)
	explode := r.panicOnRun
	r.mu.Unlock()
	if explode {
		panic("recorder exploded")
	}
}

func (r *countingRecorder) PauseToggled(paused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles = append(r.toggles, paused)
}

func (r *countingRecorder) ValidationFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections++
}

type memJournal struct {
	mu          sync.Mutex
	sessions    []string
	transitions []string
	runs        [][]int
}

func (j *memJournal) BeginSession(_ context.Context, session string, _ int64, _ []model.Horse, _ model.Schedule) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions = append(j.sessions, session)
	return nil
}

func (j *memJournal) RecordTransition(_ context.Context, _ string, _ int64, state string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.transitions = append(j.transitions, state)
	return nil
}

func (j *memJournal) RecordRun(_ context.Context, _ string, _ int64, _, _ int, results []model.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, model.IDs(results))
	return nil
}

func (j *memJournal) states() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.transitions...)
}

// drain returns every event currently in the feed.
func drain(f *Feed) []Event {
	var events []Event
	for {
		ev, ok := f.TryNext()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

// fireUntil keeps firing pending waits until cond holds.
func fireUntil(t *testing.T, timer *testutil.ManualTimer, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		timer.Fire()
		return cond()
	}, 2*time.Second, time.Millisecond)
}

// awaitWait blocks until the engine is parked on the timer.
func awaitWait(t *testing.T, timer *testutil.ManualTimer) {
	t.Helper()
	require.Eventually(t, func() bool {
		return timer.Pending() > 0
	}, 2*time.Second, time.Millisecond)
}

func waitDone(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}
