package engine

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/derby/internal/model"
)

// Speed class thresholds, inclusive upper bounds.
const (
	SlowMaxCondition   = 50
	NormalMaxCondition = 75
)

// Score normalizes a condition against the best condition of the full
// roster, scaled to 0..100.
func Score(condition, best int) float64 {
	return float64(condition*100) / float64(best)
}

// SpeedClassFor derives the animation speed class from a condition alone.
func SpeedClassFor(condition int) model.SpeedClass {
	switch {
	case condition <= SlowMaxCondition:
		return model.SpeedSlow
	case condition <= NormalMaxCondition:
		return model.SpeedNormal
	default:
		return model.SpeedFast
	}
}

// Rank scores every entrant of run against best and orders them by score,
// highest first. Entrants with equal scores keep their draw order.
//
// Rank is pure: the same run and best always produce the same ranking.
func Rank(run model.Run, best int) ([]model.Result, error) {
	if best <= 0 {
		return nil, fmt.Errorf("rank: best condition must be positive, got %d", best)
	}

	results := make([]model.Result, len(run.Entrants))
	for i, h := range run.Entrants {
		results[i] = model.Result{
			Horse: h,
			Score: Score(h.Condition, best),
			Speed: SpeedClassFor(h.Condition),
		}
	}

	slices.SortStableFunc(results, func(a, b model.Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results, nil
}

// HoldFor returns how long a run of the given distance is held on screen.
func HoldFor(distance int, perMeter time.Duration) time.Duration {
	return time.Duration(distance) * perMeter
}
