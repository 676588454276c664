package engine

import (
	"context"
	"time"

	"github.com/roach88/derby/internal/model"
)

// Severity of a user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultDisplayMs is how long a notification stays on screen by default.
const DefaultDisplayMs = 3000

// Notification is a message for the notification collaborator (toasts).
type Notification struct {
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Detail    string   `json:"detail,omitempty"`
	DisplayMs int      `json:"display_duration_ms"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Audio controls ambient race audio. Play is called when a race starts,
// Stop when it finishes and Rewind on reset.
type Audio interface {
	Play()
	Stop()
	Rewind()
}

// Recorder receives engine metrics.
type Recorder interface {
	RaceStarted()
	RaceFinished()
	RunCommitted(distance int, hold time.Duration)
	PauseToggled(paused bool)
	ValidationFailed()
}

// Journal records a race session. Failures are logged, never fatal.
type Journal interface {
	BeginSession(ctx context.Context, session string, seq int64, roster []model.Horse, sched model.Schedule) error
	RecordTransition(ctx context.Context, session string, seq int64, state string) error
	RecordRun(ctx context.Context, session string, seq int64, run, distance int, results []model.Result) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopAudio struct{}

func (nopAudio) Play()   {}
func (nopAudio) Stop()   {}
func (nopAudio) Rewind() {}

type nopRecorder struct{}

func (nopRecorder) RaceStarted()                    {}
func (nopRecorder) RaceFinished()                   {}
func (nopRecorder) RunCommitted(int, time.Duration) {}
func (nopRecorder) PauseToggled(bool)               {}
func (nopRecorder) ValidationFailed()               {}

type nopJournal struct{}

func (nopJournal) BeginSession(context.Context, string, int64, []model.Horse, model.Schedule) error {
	return nil
}

func (nopJournal) RecordTransition(context.Context, string, int64, string) error { return nil }

func (nopJournal) RecordRun(context.Context, string, int64, int, int, []model.Result) error {
	return nil
}
