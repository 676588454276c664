package engine

import "time"

// Timer provides the waits the run loop suspends on.
type Timer interface {
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// RealTimer waits on the wall clock.
type RealTimer struct{}

// After wraps time.After.
func (RealTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
