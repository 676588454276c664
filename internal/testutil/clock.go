package testutil

import (
	"sync"
	"sync/atomic"
	"time"
)

// ManualTimer is a Timer whose waits complete only when the test fires them.
//
// Tests use Pending to learn that the code under test is blocked in a wait,
// then Fire to let it proceed. This gives step-by-step control over holds
// and pause polling without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualTimer struct {
	mu      sync.Mutex
	waiters []manualWaiter
	fired   time.Duration
}

type manualWaiter struct {
	d  time.Duration
	ch chan time.Time
}

// NewManualTimer creates a timer with no pending waits.
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

// After registers a wait of d and returns its channel.
func (t *ManualTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan time.Time, 1)
	t.waiters = append(t.waiters, manualWaiter{d: d, ch: ch})
	return ch
}

// Pending returns the number of registered waits that have not fired.
func (t *ManualTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters)
}

// Fire completes every pending wait and returns how many fired.
func (t *ManualTimer) Fire() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.waiters)
	for _, w := range t.waiters {
		t.fired += w.d
		w.ch <- time.Time{}
	}
	t.waiters = nil
	return n
}

// Fired returns the sum of durations of all fired waits.
func (t *ManualTimer) Fired() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// InstantTimer is a Timer whose waits complete immediately.
//
// Waited accumulates the requested durations, so tests can check how long
// the code would have held against a real clock.
//
// Thread-safety: InstantTimer is safe for concurrent use (atomic operations).
type InstantTimer struct {
	waited atomic.Int64
}

// After returns a channel that is already ready.
func (t *InstantTimer) After(d time.Duration) <-chan time.Time {
	t.waited.Add(int64(d))
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// Waited returns the total duration requested so far.
func (t *InstantTimer) Waited() time.Duration {
	return time.Duration(t.waited.Load())
}
