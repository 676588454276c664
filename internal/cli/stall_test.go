package cli

import "time"

// stalledTimer never fires, so a race started under it holds its first run
// until reset.
type stalledTimer struct{}

func newStalledTimer() stalledTimer { return stalledTimer{} }

func (stalledTimer) After(time.Duration) <-chan time.Time { return nil }
