// Package selector implements unique random selection by rejection sampling.
//
// A selection draws uniformly from a pool and redraws while the drawn value
// collides with a value already chosen. Collisions are tracked in a Set that
// the caller owns and scopes to one build (one roster, one run). The set is
// mutated in place by every successful pick.
//
// Termination: before drawing, a pick verifies that at least one value of the
// pool is still unchosen and returns a CapacityError otherwise. Callers that
// know their total demand up front should call Require before the first draw
// so that the whole build fails fast instead of part-way through.
package selector

import (
	"errors"
	"fmt"
)

// Rand is the source of uniform indices. *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Set records the keys chosen so far within one build.
type Set[K comparable] struct {
	keys map[K]struct{}
}

// NewSet creates an empty Set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{keys: make(map[K]struct{})}
}

// Has reports whether k was already chosen.
func (s *Set[K]) Has(k K) bool {
	_, ok := s.keys[k]
	return ok
}

// Add records k as chosen.
func (s *Set[K]) Add(k K) {
	s.keys[k] = struct{}{}
}

// Len returns the number of chosen keys.
func (s *Set[K]) Len() int {
	return len(s.keys)
}

// Pool is a named, ordered collection of candidate values. Key maps a value
// to its collision key: the value itself for scalars, a comparable value
// (such as an array) for composites so equality is element-wise.
type Pool[T any, K comparable] struct {
	Name  string
	Items []T
	Key   func(T) K
}

// NewPool creates a pool.
func NewPool[T any, K comparable](name string, items []T, key func(T) K) Pool[T, K] {
	return Pool[T, K]{Name: name, Items: items, Key: key}
}

// Identity is the key function for pools of comparable scalars.
func Identity[T comparable](v T) T {
	return v
}

// Distinct returns the number of distinct keys in the pool.
func (p Pool[T, K]) Distinct() int {
	seen := make(map[K]struct{}, len(p.Items))
	for _, v := range p.Items {
		seen[p.Key(v)] = struct{}{}
	}
	return len(seen)
}

// Pick draws a value whose key is not in chosen and records its key.
//
// Returns a CapacityError when every distinct key of the pool has already
// been chosen (or the pool is empty).
func (p Pool[T, K]) Pick(rng Rand, chosen *Set[K]) (T, error) {
	var zero T
	if !p.hasFresh(chosen) {
		return zero, &CapacityError{Pool: p.Name, Demand: chosen.Len() + 1, Supply: p.Distinct()}
	}

	for {
		v := p.Items[rng.IntN(len(p.Items))]
		k := p.Key(v)
		if chosen.Has(k) {
			continue
		}
		chosen.Add(k)
		return v, nil
	}
}

// hasFresh reports whether the pool still holds a key not in chosen.
func (p Pool[T, K]) hasFresh(chosen *Set[K]) bool {
	for _, v := range p.Items {
		if !chosen.Has(p.Key(v)) {
			return true
		}
	}
	return false
}

// PickInRange draws an integer in [lo, hi] not in chosen and records it.
//
// Returns a CapacityError when the interval is empty or exhausted.
func PickInRange(rng Rand, name string, lo, hi int, chosen *Set[int]) (int, error) {
	supply := hi - lo + 1
	if supply <= 0 {
		return 0, &CapacityError{Pool: name, Demand: chosen.Len() + 1, Supply: 0}
	}

	// Only keys inside the interval count against its supply.
	used := 0
	for k := range chosen.keys {
		if k >= lo && k <= hi {
			used++
		}
	}
	if used >= supply {
		return 0, &CapacityError{Pool: name, Demand: used + 1, Supply: supply}
	}

	for {
		v := lo + rng.IntN(supply)
		if chosen.Has(v) {
			continue
		}
		chosen.Add(v)
		return v, nil
	}
}

// Require validates that demand unique picks fit in supply distinct values.
func Require(pool string, demand, supply int) error {
	if demand > supply {
		return &CapacityError{Pool: pool, Demand: demand, Supply: supply}
	}
	return nil
}

// CapacityError is returned when more unique values are requested than a
// pool can supply. Without it, rejection sampling would never terminate.
type CapacityError struct {
	Pool   string // Name of the exhausted pool
	Demand int    // Number of unique values requested
	Supply int    // Number of distinct values available
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	if e.Pool == "" {
		return fmt.Sprintf("insufficient pool capacity: %d unique values requested, %d available",
			e.Demand, e.Supply)
	}
	return fmt.Sprintf("insufficient %s capacity: %d unique values requested, %d available",
		e.Pool, e.Demand, e.Supply)
}

// IsCapacity returns true if the error is a CapacityError.
// Uses errors.As to handle wrapped errors.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
