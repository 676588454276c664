// Package schedule builds the ordered runs of a race session.
//
// Each run samples a fixed number of distinct horses from the roster. Uniqueness
// is enforced within a run only: the same horse may race in several runs.
package schedule

import (
	"errors"
	"fmt"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/selector"
)

// Defaults for a session.
const (
	DefaultRuns     = 6
	DefaultEntrants = 10
)

// DefaultDistances are the run lengths in meters, one per run position.
var DefaultDistances = []int{1200, 1400, 1600, 1800, 2000, 2200}

// PoolRoster is the pool name used in capacity errors.
const PoolRoster = "roster"

// Plan describes the shape of a schedule.
type Plan struct {
	Runs      int   `json:"runs"`
	Entrants  int   `json:"entrants"`
	Distances []int `json:"distances"`
}

// DefaultPlan returns six runs of ten entrants over the default distances.
func DefaultPlan() Plan {
	return Plan{
		Runs:      DefaultRuns,
		Entrants:  DefaultEntrants,
		Distances: append([]int(nil), DefaultDistances...),
	}
}

// Validate checks the plan is internally consistent.
func (p Plan) Validate() error {
	var errs []error
	if p.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be at least 1, got %d", p.Runs))
	}
	if p.Entrants < 1 {
		errs = append(errs, fmt.Errorf("entrants must be at least 1, got %d", p.Entrants))
	}
	if len(p.Distances) != p.Runs {
		errs = append(errs, fmt.Errorf("need one distance per run: %d runs, %d distances", p.Runs, len(p.Distances)))
	}
	for i, d := range p.Distances {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("distance %d must be positive, got %d", i, d))
		}
	}
	return errors.Join(errs...)
}

// Build draws plan.Runs runs from roster.
//
// Entrants of a run are kept in draw order. Returns a *selector.CapacityError
// before drawing when the roster has fewer horses than a run needs.
func Build(rng selector.Rand, roster []model.Horse, plan Plan) (model.Schedule, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	if err := selector.Require(PoolRoster, plan.Entrants, len(roster)); err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	indices := make([]int, len(roster))
	for i := range indices {
		indices[i] = i
	}
	pool := selector.NewPool(PoolRoster, indices, selector.Identity[int])

	sched := make(model.Schedule, 0, plan.Runs)
	for i := 0; i < plan.Runs; i++ {
		// Fresh set per run: reuse across runs is allowed.
		used := selector.NewSet[int]()
		entrants := make([]model.Horse, 0, plan.Entrants)
		for j := 0; j < plan.Entrants; j++ {
			idx, err := pool.Pick(rng, used)
			if err != nil {
				return nil, fmt.Errorf("build schedule: run %d: %w", i, err)
			}
			entrants = append(entrants, roster[idx])
		}
		sched = append(sched, model.Run{Entrants: entrants, Distance: plan.Distances[i]})
	}

	return sched, nil
}

// Check verifies that every run of sched is drawn from roster without
// duplicates and that all runs field the same number of entrants. Used to
// validate schedules supplied from outside Build.
func Check(roster []model.Horse, sched model.Schedule) error {
	byID := make(map[int]model.Horse, len(roster))
	for _, h := range roster {
		byID[h.ID] = h
	}

	for i, run := range sched {
		if run.Distance <= 0 {
			return fmt.Errorf("run %d: distance must be positive, got %d", i, run.Distance)
		}
		if len(run.Entrants) == 0 {
			return fmt.Errorf("run %d: no entrants", i)
		}
		if want := len(sched[0].Entrants); len(run.Entrants) != want {
			return fmt.Errorf("run %d: %d entrants, run 0 has %d", i, len(run.Entrants), want)
		}
		seen := make(map[int]bool, len(run.Entrants))
		for _, h := range run.Entrants {
			member, ok := byID[h.ID]
			if !ok || member != h {
				return fmt.Errorf("run %d: horse %d is not in the roster", i, h.ID)
			}
			if seen[h.ID] {
				return fmt.Errorf("run %d: horse %d entered twice", i, h.ID)
			}
			seen[h.ID] = true
		}
	}
	return nil
}
