package engine

import (
	"sync"

	"github.com/roach88/derby/internal/model"
)

// EventType distinguishes feed events.
type EventType string

const (
	EventRosterGenerated   EventType = "roster_generated"
	EventScheduleGenerated EventType = "schedule_generated"
	EventStarted           EventType = "started"
	EventPaused            EventType = "paused"
	EventResumed           EventType = "resumed"
	EventRunCommitted      EventType = "run_committed"
	EventFinished          EventType = "finished"
	EventReset             EventType = "reset"
	EventFailed            EventType = "failed"
)

// Event is one observable engine transition.
type Event struct {
	Seq      int64          `json:"seq"`
	Session  string         `json:"session,omitempty"`
	Type     EventType      `json:"type"`
	Run      int            `json:"run"`
	Distance int            `json:"distance,omitempty"`
	Results  []model.Result `json:"results,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Feed is a thread-safe FIFO of engine events for a single consumer.
//
// The feed is unbounded so a slow renderer never blocks the run loop.
//
// The feed uses a channel for signaling to enable context-aware waiting
// in consumers:
//
//	for {
//	    ev, ok := feed.TryNext()
//	    if ok {
//	        render(ev)
//	        continue
//	    }
//	    select {
//	    case <-ctx.Done():
//	        return
//	    case <-feed.Wait():
//	    }
//	}
type Feed struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Publish appends an event.
// Returns false if the feed is closed.
func (f *Feed) Publish(e Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}

	f.events = append(f.events, e)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case f.signal <- struct{}{}:
	default:
	}

	return true
}

// TryNext removes and returns the oldest event without blocking.
// Returns (Event{}, false) if the feed is empty.
func (f *Feed) TryNext() (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return Event{}, false
	}

	e := f.events[0]
	// Release the results slice held by the slot.
	f.events[0] = Event{}

	if len(f.events) == 1 {
		f.events = f.events[:0]
	} else {
		f.events = f.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the feed is closed.
func (f *Feed) Wait() <-chan struct{} {
	return f.signal
}

// Len returns the number of pending events.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// Closed reports whether Close was called.
func (f *Feed) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close signals that no more events will be published.
// Pending events can still be drained with TryNext.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.closed = true
	close(f.signal)
}
