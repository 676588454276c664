package harness

import (
	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/model"
)

// TraceEvent is one feed event in a scenario trace.
type TraceEvent struct {
	Seq      int64     `json:"seq"`
	Type     string    `json:"type"`
	Session  string    `json:"session,omitempty"`
	Run      int       `json:"run"`
	Distance int       `json:"distance,omitempty"`
	Ranking  []Placing `json:"ranking,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Placing is one ranked horse of a committed run.
type Placing struct {
	Horse int              `json:"horse"`
	Name  string           `json:"name"`
	Score float64          `json:"score"`
	Speed model.SpeedClass `json:"speed"`
}

func traceEvent(ev engine.Event) TraceEvent {
	te := TraceEvent{
		Seq:      ev.Seq,
		Type:     string(ev.Type),
		Session:  ev.Session,
		Run:      ev.Run,
		Distance: ev.Distance,
		Error:    ev.Error,
	}
	for _, r := range ev.Results {
		te.Ranking = append(te.Ranking, Placing{
			Horse: r.Horse.ID,
			Name:  r.Horse.Name,
			Score: r.Score,
			Speed: r.Speed,
		})
	}
	return te
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step and assertion succeeded.
	Pass bool `json:"pass"`

	// Trace holds the engine's feed events in seq order.
	Trace []TraceEvent `json:"trace"`

	// Notifications holds every notification in delivery order.
	Notifications []engine.Notification `json:"notifications"`

	// Errors describes each failed step or assertion.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine state after the last step.
	Final engine.Snapshot `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:          true,
		Trace:         []TraceEvent{},
		Notifications: []engine.Notification{},
		Errors:        []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
