package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/pools"
)

//go:embed schema.cue
var schemaCUE string

// Error is a configuration problem, positioned in the source file when
// known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// rawConfig mirrors the file layout. Pointers distinguish omitted fields
// from zero values.
type rawConfig struct {
	Seed         *uint64     `json:"seed"`
	RosterSize   *int        `json:"roster_size"`
	Runs         *int        `json:"runs"`
	Entrants     *int        `json:"entrants"`
	Distances    []int       `json:"distances"`
	HoldPerMeter *string     `json:"hold_per_meter"`
	PollInterval *string     `json:"poll_interval"`
	Journal      *string     `json:"journal"`
	Addr         *string     `json:"addr"`
	Catalog      *rawCatalog `json:"catalog"`
}

type rawCatalog struct {
	Names  []string          `json:"names"`
	Silks  [][]string        `json:"silks"`
	Colors []model.BodyColor `json:"colors"`
}

// Load reads a CUE file and merges it over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Message: fmt.Sprintf("reading config: %v", err), Err: err}
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema and merges it over Default.
// The filename is used for error positions only.
func Parse(filename string, src []byte) (Config, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compiling config schema: %w", err)
	}

	value := cctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Config{}, fromCUE(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Race")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fromCUE(err)
	}

	var raw rawConfig
	if err := unified.Decode(&raw); err != nil {
		return Config{}, fromCUE(err)
	}

	cfg, err := raw.merge(Default(), value)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &Error{Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// merge overlays the fields present in the file. v is the file value, used
// for error positions.
func (r rawConfig) merge(cfg Config, v cue.Value) (Config, error) {
	if r.Seed != nil {
		seed := *r.Seed
		cfg.Seed = &seed
	}
	if r.RosterSize != nil {
		cfg.RosterSize = *r.RosterSize
	}
	if r.Runs != nil {
		cfg.Plan.Runs = *r.Runs
		// A custom run count without distances repeats the default ladder.
		if r.Distances == nil {
			cfg.Plan.Distances = ladder(cfg.Plan.Runs)
		}
	}
	if r.Entrants != nil {
		cfg.Plan.Entrants = *r.Entrants
	}
	if r.Distances != nil {
		cfg.Plan.Distances = r.Distances
	}
	if r.Journal != nil {
		cfg.Journal = *r.Journal
	}
	if r.Addr != nil {
		cfg.Addr = *r.Addr
	}

	var err error
	if cfg.HoldPerMeter, err = duration(v, "hold_per_meter", r.HoldPerMeter, cfg.HoldPerMeter); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = duration(v, "poll_interval", r.PollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}

	if r.Catalog != nil {
		catalog := pools.Default()
		if r.Catalog.Names != nil {
			catalog.Names = r.Catalog.Names
		}
		if r.Catalog.Silks != nil {
			catalog.Silks = make([]model.SilkPair, len(r.Catalog.Silks))
			for i, s := range r.Catalog.Silks {
				catalog.Silks[i] = model.SilkPair{s[0], s[1]}
			}
		}
		if r.Catalog.Colors != nil {
			catalog.Colors = r.Catalog.Colors
		}
		cfg.Catalog = &catalog
	}

	return cfg, nil
}

// ladder returns n distances cycling through the default ladder.
func ladder(n int) []int {
	defaults := Default().Plan.Distances
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = defaults[i%len(defaults)]
	}
	return out
}

func duration(v cue.Value, field string, raw *string, fallback time.Duration) (time.Duration, error) {
	if raw == nil {
		return fallback, nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return 0, &Error{
			Field:   field,
			Message: fmt.Sprintf("invalid duration %q", *raw),
			Pos:     v.LookupPath(cue.ParsePath(field)).Pos(),
			Err:     err,
		}
	}
	return d, nil
}

// fromCUE converts a CUE error to an *Error carrying the first position.
func fromCUE(err error) *Error {
	out := &Error{Message: err.Error(), Err: err}

	var cerr cueerrors.Error
	if errors.As(err, &cerr) {
		list := cueerrors.Errors(cerr)
		if len(list) > 0 {
			first := list[0]
			out.Pos = first.Position()
			format, args := first.Msg()
			out.Message = fmt.Sprintf(format, args...)
			if path := first.Path(); len(path) > 0 {
				out.Field = path[len(path)-1]
			}
		}
	}
	return out
}
