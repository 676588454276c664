// Package config holds race settings: built-in defaults, an optional CUE
// file validated against an embedded schema, and cross-field checks.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/roach88/derby/internal/engine"
	"github.com/roach88/derby/internal/pools"
	"github.com/roach88/derby/internal/roster"
	"github.com/roach88/derby/internal/schedule"
	"github.com/roach88/derby/internal/store"
)

// DefaultAddr is the presentation server listen address.
const DefaultAddr = ":8080"

// Config is the full set of race settings.
type Config struct {
	// Seed fixes the random source. Nil draws a random seed.
	Seed *uint64 `json:"seed,omitempty"`

	RosterSize int           `json:"roster_size"`
	Plan       schedule.Plan `json:"plan"`

	HoldPerMeter time.Duration `json:"hold_per_meter"`
	PollInterval time.Duration `json:"poll_interval"`

	// Catalog replaces the built-in identity pools when set.
	Catalog *pools.Catalog `json:"catalog,omitempty"`

	Journal string `json:"journal"`
	Addr    string `json:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		RosterSize:   engine.DefaultRosterSize,
		Plan:         schedule.DefaultPlan(),
		HoldPerMeter: engine.DefaultHoldPerMeter,
		PollInterval: engine.DefaultPollInterval,
		Journal:      store.MemoryDSN,
		Addr:         DefaultAddr,
	}
}

// Validate checks settings that span several fields. All problems are
// reported together.
func (c Config) Validate() error {
	var errs []error

	if err := c.Plan.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.RosterSize < 1 {
		errs = append(errs, fmt.Errorf("roster_size must be at least 1, got %d", c.RosterSize))
	}
	if c.Plan.Entrants > c.RosterSize {
		errs = append(errs, fmt.Errorf("entrants (%d) exceed roster_size (%d)", c.Plan.Entrants, c.RosterSize))
	}
	if capacity := roster.Capacity(c.catalog()); c.RosterSize > capacity {
		errs = append(errs, fmt.Errorf("roster_size (%d) exceeds catalog capacity (%d)", c.RosterSize, capacity))
	}
	if c.HoldPerMeter < 0 {
		errs = append(errs, fmt.Errorf("hold_per_meter must not be negative, got %s", c.HoldPerMeter))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}

	return errors.Join(errs...)
}

func (c Config) catalog() pools.Catalog {
	if c.Catalog != nil {
		return *c.Catalog
	}
	return pools.Default()
}

// Rand returns the random source the settings describe.
func (c Config) Rand() *rand.Rand {
	if c.Seed != nil {
		return rand.New(rand.NewPCG(*c.Seed, *c.Seed^0x5851f42d4c957f2d))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// EngineOptions returns the engine options for these settings. Callers
// append collaborators of their own.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithCatalog(c.catalog()),
		engine.WithPlan(c.Plan),
		engine.WithRosterSize(c.RosterSize),
		engine.WithRand(c.Rand()),
		engine.WithTiming(c.HoldPerMeter, c.PollInterval),
	}
}
