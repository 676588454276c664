package testutil

import (
	"math/rand/v2"
	"sync"
)

// NewRand returns a seeded PCG generator so tests draw the same sequence on
// every run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ScriptedRand replays a fixed sequence of indices, cycling when exhausted.
//
// Each value is reduced modulo n, so scripts stay valid for any pool size.
// Useful for forcing specific collisions in rejection-sampling tests.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedRand struct {
	mu     sync.Mutex
	values []int
	idx    int
	calls  int
}

// NewScriptedRand creates a ScriptedRand. It panics if values is empty.
func NewScriptedRand(values ...int) *ScriptedRand {
	if len(values) == 0 {
		panic("ScriptedRand: empty script")
	}
	return &ScriptedRand{values: values}
}

// IntN returns the next scripted value modulo n.
func (r *ScriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.idx%len(r.values)]
	r.idx++
	r.calls++
	return v % n
}

// Calls returns how many draws were made.
func (r *ScriptedRand) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
