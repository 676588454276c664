package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/pools"
	"github.com/roach88/derby/internal/roster"
	"github.com/roach88/derby/internal/schedule"
	"github.com/roach88/derby/internal/selector"
)

// Timing defaults.
const (
	// DefaultHoldPerMeter makes a 1200m run hold for 2.4s.
	DefaultHoldPerMeter = 2 * time.Millisecond

	// DefaultPollInterval is how often a paused loop re-checks the pause flag.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultRosterSize is the roster size used by Init.
	DefaultRosterSize = 20
)

// State is the phase of the execution state machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateFinished
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateIdle, StateRunning, StatePaused, StateFinished} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Snapshot is a read-only view of the execution state for renderers.
//
// Roster, Schedule and the per-run result slices are shared with the engine
// and must not be modified; the engine itself never mutates them in place.
type Snapshot struct {
	State      State            `json:"state"`
	Session    string           `json:"session,omitempty"`
	Roster     []model.Horse    `json:"roster"`
	Schedule   model.Schedule   `json:"schedule"`
	CurrentRun int              `json:"current_run"`
	Running    bool             `json:"is_running"`
	Paused     bool             `json:"is_paused"`
	Finished   bool             `json:"is_finished"`
	Results    [][]model.Result `json:"results"`
	Err        error            `json:"-"`
	Error      string           `json:"error,omitempty"`
}

// Engine is the race executor.
//
// Thread-safety model:
//   - all exported methods are safe from any goroutine
//   - the run loop is the only code that advances runs
//   - collaborators are called without the engine lock held; they must not
//     call Start or Reset synchronously from inside a callback
//   - cancelling the context passed to Start halts the loop; the race keeps
//     its state until Reset
//
// INVARIANTS:
//   - at most one run loop per engine at any time
//   - results are appended in schedule order, one slice per run
//   - state is changed only by the engine's methods and run loop
type Engine struct {
	mu sync.Mutex

	// Generation inputs
	catalog    pools.Catalog
	plan       schedule.Plan
	rosterSize int
	rng        selector.Rand

	// Execution state
	roster   []model.Horse
	schedule model.Schedule
	session  string
	current  int
	running  bool
	paused   bool
	finished bool
	results  [][]model.Result
	err      error

	// Run loop control
	cancel context.CancelFunc
	done   chan struct{}
	resume chan struct{} // Signals un-pause (buffered, size 1)

	// Timing
	timer        Timer
	holdPerMeter time.Duration
	pollInterval time.Duration

	// Observers and collaborators
	clock    *Clock
	sessions SessionGenerator
	feed     *Feed
	notifier Notifier
	audio    Audio
	recorder Recorder
	journal  Journal
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the identity pools rosters are drawn from.
func WithCatalog(c pools.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithPlan sets the schedule shape.
func WithPlan(p schedule.Plan) Option {
	return func(e *Engine) { e.plan = p }
}

// WithRosterSize sets the roster size used by Init.
func WithRosterSize(n int) Option {
	return func(e *Engine) { e.rosterSize = n }
}

// WithRand sets the random source used for rosters and schedules.
func WithRand(r selector.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithTimer sets the timer the run loop waits on.
func WithTimer(t Timer) Option {
	return func(e *Engine) { e.timer = t }
}

// WithTiming sets the hold per meter of distance and the pause poll interval.
// A non-positive poll interval keeps the default.
func WithTiming(holdPerMeter, pollInterval time.Duration) Option {
	return func(e *Engine) {
		e.holdPerMeter = holdPerMeter
		if pollInterval > 0 {
			e.pollInterval = pollInterval
		}
	}
}

// WithFeed publishes engine events on f.
func WithFeed(f *Feed) Option {
	return func(e *Engine) { e.feed = f }
}

// WithNotifier sets the notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithAudio sets the audio collaborator.
func WithAudio(a Audio) Option {
	return func(e *Engine) { e.audio = a }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithJournal sets the session journal.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithSessionGenerator sets the session token generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) { e.sessions = g }
}

// WithClock sets the logical clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an idle Engine with an empty roster and schedule.
func New(opts ...Option) *Engine {
	e := &Engine{
		catalog:      pools.Default(),
		plan:         schedule.DefaultPlan(),
		rosterSize:   DefaultRosterSize,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		resume:       make(chan struct{}, 1),
		timer:        RealTimer{},
		holdPerMeter: DefaultHoldPerMeter,
		pollInterval: DefaultPollInterval,
		clock:        NewClock(),
		sessions:     UUIDv7Generator{},
		notifier:     nopNotifier{},
		audio:        nopAudio{},
		recorder:     nopRecorder{},
		journal:      nopJournal{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Init generates a roster of the configured size and a schedule from it.
func (e *Engine) Init() error {
	if err := e.GenerateRoster(e.rosterSize); err != nil {
		return err
	}
	return e.GenerateSchedule()
}

// GenerateRoster replaces the roster with count freshly drawn horses.
// The schedule and any results are discarded with the old roster.
func (e *Engine) GenerateRoster(count int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrBusy
	}

	horses, err := roster.Build(e.rng, e.catalog, count)
	if err != nil {
		return err
	}

	e.setRosterLocked(horses)
	slog.Info("roster generated", "horses", len(horses))
	return nil
}

// SetRoster replaces the roster with a caller-supplied one.
func (e *Engine) SetRoster(horses []model.Horse) error {
	if err := roster.Validate(horses); err != nil {
		return fmt.Errorf("set roster: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrBusy
	}

	e.setRosterLocked(append([]model.Horse(nil), horses...))
	return nil
}

func (e *Engine) setRosterLocked(horses []model.Horse) {
	e.roster = horses
	e.schedule = nil
	e.clearResultsLocked()
	e.publishLocked(Event{Seq: e.clock.Next(), Type: EventRosterGenerated})
}

// GenerateSchedule draws a new schedule from the current roster.
// Requires a roster; returns a validation error otherwise.
func (e *Engine) GenerateSchedule() error {
	e.mu.Lock()

	if e.running {
		e.mu.Unlock()
		return ErrBusy
	}
	if len(e.roster) == 0 {
		e.mu.Unlock()
		return e.rejectValidation("No horses", "Generate horses before building a schedule.", "no roster available")
	}

	sched, err := schedule.Build(e.rng, e.roster, e.plan)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.setScheduleLocked(sched)
	e.mu.Unlock()

	slog.Info("schedule generated", "runs", len(sched), "entrants", e.plan.Entrants)
	return nil
}

// SetSchedule replaces the schedule with a caller-supplied one. Every entrant
// must belong to the current roster and appear at most once per run.
func (e *Engine) SetSchedule(sched model.Schedule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrBusy
	}
	if err := schedule.Check(e.roster, sched); err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}

	e.setScheduleLocked(sched.Clone())
	return nil
}

func (e *Engine) setScheduleLocked(sched model.Schedule) {
	e.schedule = sched
	e.clearResultsLocked()
	e.publishLocked(Event{Seq: e.clock.Next(), Type: EventScheduleGenerated})
}

func (e *Engine) clearResultsLocked() {
	e.results = nil
	e.current = 0
	e.finished = false
	e.err = nil
}

// rejectValidation reports an unmet precondition to the user and returns the
// matching error. Must be called without the lock held.
func (e *Engine) rejectValidation(title, detail, message string) error {
	e.notifier.Notify(Notification{
		Severity:  SeverityError,
		Title:     title,
		Detail:    detail,
		DisplayMs: DefaultDisplayMs,
	})
	e.recorder.ValidationFailed()
	slog.Warn("command rejected", "reason", message)
	return NewValidationError(message)
}

// Start begins executing the schedule from its first run.
//
// Returns ErrAlreadyRunning, without touching state or collaborators, if a
// race is running. Returns a validation error, after notifying the user once,
// if there is no schedule. Otherwise clears prior results and spawns the run
// loop; the loop stops when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.awaitPreviousLocked()

	if e.running {
		session := e.session
		e.mu.Unlock()
		slog.Debug("start ignored: race already running", "session", session)
		return ErrAlreadyRunning
	}
	if len(e.schedule) == 0 {
		e.mu.Unlock()
		return e.rejectValidation("No race schedule", "Generate a schedule before starting the race.", "no schedule available")
	}

	session := e.sessions.Generate()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.session = session
	e.cancel = cancel
	e.done = done
	e.clearResultsLocked()
	e.running = true
	e.paused = false
	e.drainResumeLocked()

	sched := e.schedule
	horses := e.roster
	best := roster.BestCondition(horses)
	seq := e.clock.Next()
	e.publishLocked(Event{Seq: seq, Session: session, Type: EventStarted})
	e.mu.Unlock()

	slog.Info("race started", "session", session, "runs", len(sched), "best_condition", best)

	jctx := context.WithoutCancel(ctx)
	e.logJournal(e.journal.BeginSession(jctx, session, seq, horses, sched), session)
	e.logJournal(e.journal.RecordTransition(jctx, session, seq, StateRunning.String()), session)
	e.audio.Play()
	e.recorder.RaceStarted()

	go e.loop(runCtx, jctx, session, sched, best, done)
	return nil
}

// awaitPreviousLocked waits for a loop that has already left the running
// state (finished or cancelled) to exit, so two loops never overlap.
// Called and returns with the lock held.
func (e *Engine) awaitPreviousLocked() {
	for e.done != nil && !e.running {
		cancel, done := e.cancel, e.done
		e.mu.Unlock()
		cancel()
		<-done
		e.mu.Lock()
		if e.done == done {
			e.done = nil
			e.cancel = nil
		}
	}
}

func (e *Engine) drainResumeLocked() {
	select {
	case <-e.resume:
	default:
	}
}

// TogglePause pauses a running race, or resumes a paused one, and returns
// the new paused state. Outside a running race it does nothing and returns
// false.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()
		return false
	}

	e.paused = !e.paused
	paused := e.paused
	session := e.session
	run := e.current

	typ, state := EventResumed, StateRunning
	if paused {
		typ, state = EventPaused, StatePaused
	} else {
		select {
		case e.resume <- struct{}{}:
		default:
		}
	}

	seq := e.clock.Next()
	e.publishLocked(Event{Seq: seq, Session: session, Type: typ, Run: run})
	e.mu.Unlock()

	slog.Info("race pause toggled", "session", session, "paused", paused, "run", run)
	e.recorder.PauseToggled(paused)
	e.logJournal(e.journal.RecordTransition(context.Background(), session, seq, state.String()), session)
	return paused
}

// Reset stops any run loop and returns the engine to Idle. The roster and
// schedule are kept; results, run pointer and flags are cleared.
//
// Reset interrupts an in-flight wait and returns after the loop has exited.
func (e *Engine) Reset() {
	e.mu.Lock()
	for e.done != nil {
		cancel, done := e.cancel, e.done
		e.mu.Unlock()
		cancel()
		<-done
		e.mu.Lock()
		if e.done == done {
			e.done = nil
			e.cancel = nil
		}
	}

	session := e.session
	e.clearResultsLocked()
	e.running = false
	e.paused = false
	e.drainResumeLocked()
	seq := e.clock.Next()
	e.publishLocked(Event{Seq: seq, Session: session, Type: EventReset})
	e.mu.Unlock()

	slog.Info("race reset", "session", session)
	e.audio.Rewind()
	if session != "" {
		e.logJournal(e.journal.RecordTransition(context.Background(), session, seq, StateIdle.String()), session)
	}
}

// Snapshot returns the current execution state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		State:      e.stateLocked(),
		Session:    e.session,
		Roster:     e.roster,
		Schedule:   e.schedule,
		CurrentRun: e.current,
		Running:    e.running,
		Paused:     e.paused,
		Finished:   e.finished,
		Results:    append([][]model.Result(nil), e.results...),
		Err:        e.err,
	}
	if e.err != nil {
		s.Error = e.err.Error()
	}
	return s
}

// State returns the current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.running && e.paused:
		return StatePaused
	case e.running:
		return StateRunning
	case e.finished:
		return StateFinished
	default:
		return StateIdle
	}
}

// Wait blocks until the current run loop exits or ctx is done. Returns
// immediately when no loop was started.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop executes the schedule for one session.
// CRITICAL: the only code that advances runs.
func (e *Engine) loop(ctx, jctx context.Context, session string, sched model.Schedule, best int, done chan struct{}) {
	defer close(done)

	run := 0
	defer func() {
		if r := recover(); r != nil {
			e.fail(jctx, session, NewRunFailedError(session, run, fmt.Errorf("panic: %v", r)))
		}
	}()

	for i := range sched {
		run = i
		if !e.advance(session, i) {
			return
		}

		if err := e.waitWhilePaused(ctx); err != nil {
			slog.Debug("run loop cancelled while paused", "session", session, "run", i)
			return
		}

		ranked, err := Rank(sched[i], best)
		if err != nil {
			e.fail(jctx, session, NewRunFailedError(session, i, err))
			return
		}

		hold := HoldFor(sched[i].Distance, e.holdPerMeter)
		slog.Debug("run holding", "session", session, "run", i, "distance", sched[i].Distance, "hold", hold)
		if err := e.hold(ctx, hold); err != nil {
			slog.Debug("run loop cancelled during hold", "session", session, "run", i)
			return
		}

		if !e.commit(ctx, jctx, session, i, sched[i].Distance, ranked, hold) {
			return
		}
	}

	e.finish(jctx, session, len(sched))
}

// advance moves the run pointer. Returns false if the session is no longer
// live.
func (e *Engine) advance(session string, run int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.liveLocked(session) {
		return false
	}
	e.current = run
	return true
}

func (e *Engine) liveLocked(session string) bool {
	return e.running && e.session == session && e.err == nil
}

func (e *Engine) isPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// waitWhilePaused suspends while the pause flag is set. It wakes on resume,
// on every poll interval and on cancellation.
func (e *Engine) waitWhilePaused(ctx context.Context) error {
	for e.isPaused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.resume:
		case <-e.timer.After(e.pollInterval):
		}
	}
	return ctx.Err()
}

// hold waits for total in poll-sized steps. A step that ends while paused
// does not count, so a pause neither loses nor double-counts elapsed time
// beyond one step.
func (e *Engine) hold(ctx context.Context, total time.Duration) error {
	for remaining := total; remaining > 0; {
		if err := e.waitWhilePaused(ctx); err != nil {
			return err
		}

		step := min(e.pollInterval, remaining)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.timer.After(step):
		}

		if !e.isPaused() {
			remaining -= step
		}
	}
	return ctx.Err()
}

// commit appends the ranking of run. Returns false if the session was reset
// or cancelled in the meantime, in which case nothing is committed.
func (e *Engine) commit(ctx, jctx context.Context, session string, run, distance int, ranked []model.Result, hold time.Duration) bool {
	e.mu.Lock()
	if ctx.Err() != nil || !e.liveLocked(session) || len(e.results) != run {
		e.mu.Unlock()
		return false
	}

	e.results = append(e.results, ranked)
	seq := e.clock.Next()
	e.publishLocked(Event{
		Seq:      seq,
		Session:  session,
		Type:     EventRunCommitted,
		Run:      run,
		Distance: distance,
		Results:  ranked,
	})
	e.mu.Unlock()

	winner := ""
	if len(ranked) > 0 {
		winner = ranked[0].Horse.Name
	}
	slog.Info("run committed",
		"session", session,
		"run", run,
		"distance", distance,
		"winner", winner,
	)
	e.recorder.RunCommitted(distance, hold)
	e.logJournal(e.journal.RecordRun(jctx, session, seq, run, distance, ranked), session)
	return true
}

// finish marks the race finished and tells collaborators.
func (e *Engine) finish(jctx context.Context, session string, runs int) {
	e.mu.Lock()
	if !e.liveLocked(session) {
		e.mu.Unlock()
		return
	}

	e.running = false
	e.paused = false
	e.finished = true
	seq := e.clock.Next()
	e.publishLocked(Event{Seq: seq, Session: session, Type: EventFinished, Run: e.current})
	e.mu.Unlock()

	slog.Info("race finished", "session", session, "runs", runs)
	e.audio.Stop()
	e.notifier.Notify(Notification{
		Severity:  SeveritySuccess,
		Title:     "Race finished",
		Detail:    fmt.Sprintf("All %d runs completed.", runs),
		DisplayMs: DefaultDisplayMs,
	})
	e.recorder.RaceFinished()
	e.logJournal(e.journal.RecordTransition(jctx, session, seq, StateFinished.String()), session)
}

// fail records a run failure. The race stays Running without progress until
// Reset.
func (e *Engine) fail(jctx context.Context, session string, err *RaceError) {
	e.mu.Lock()
	if !e.liveLocked(session) {
		e.mu.Unlock()
		return
	}

	e.err = err
	seq := e.clock.Next()
	e.publishLocked(Event{Seq: seq, Session: session, Type: EventFailed, Run: err.Run, Error: err.Error()})
	e.mu.Unlock()

	slog.Error("run failed, race halted",
		"session", session,
		"run", err.Run,
		"error", err,
	)
	e.logJournal(e.journal.RecordTransition(jctx, session, seq, "failed"), session)
}

// publishLocked sends an event to the feed, if any. Publishing under the
// lock keeps feed order identical to seq order.
func (e *Engine) publishLocked(ev Event) {
	if e.feed == nil {
		return
	}
	if ev.Session == "" {
		ev.Session = e.session
	}
	e.feed.Publish(ev)
}

func (e *Engine) logJournal(err error, session string) {
	if err != nil {
		slog.Warn("journal write failed", "session", session, "error", err)
	}
}
