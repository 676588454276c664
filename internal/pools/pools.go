// Package pools holds the read-only identity catalogs a roster is drawn from:
// horse names, jockey silk pairs, body colors and the condition range.
//
// Catalogs supplied by callers may contain accidental repeats. CleanNames and
// CleanSilks remove them before sampling so that repeats cannot silently
// shrink the effective variety of a roster.
package pools

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/derby/internal/model"
)

// Condition range, inclusive on both ends.
const (
	MinCondition = 1
	MaxCondition = 100
)

// ConditionSupply is the number of distinct condition values available.
func ConditionSupply() int {
	return MaxCondition - MinCondition + 1
}

// Catalog groups the three pools a roster is built from.
type Catalog struct {
	Names  []string          `json:"names"`
	Silks  []model.SilkPair  `json:"silks"`
	Colors []model.BodyColor `json:"colors"`
}

// Default returns the built-in catalog. The slices are copies; callers may
// modify them freely.
func Default() Catalog {
	return Catalog{
		Names:  append([]string(nil), Names...),
		Silks:  append([]model.SilkPair(nil), Silks...),
		Colors: append([]model.BodyColor(nil), BodyColors...),
	}
}

// CleanNames returns names with duplicates removed, preserving first
// occurrence order. Names are trimmed and NFC-normalized before comparison,
// so canonically equivalent spellings count as one name. Empty names are
// dropped.
func CleanNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = norm.NFC.String(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// CleanSilks returns silks with structural duplicates removed. Two pairs are
// equal iff both colors match in order.
func CleanSilks(silks []model.SilkPair) []model.SilkPair {
	seen := make(map[model.SilkPair]struct{}, len(silks))
	out := make([]model.SilkPair, 0, len(silks))
	for _, s := range silks {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Clean returns a copy of c with names and silks de-duplicated. Colors are
// left as-is; they are compared by value at selection time.
func (c Catalog) Clean() Catalog {
	return Catalog{
		Names:  CleanNames(c.Names),
		Silks:  CleanSilks(c.Silks),
		Colors: append([]model.BodyColor(nil), c.Colors...),
	}
}

// ColorKey is the collision key of a body color.
func ColorKey(c model.BodyColor) string {
	return c.Value
}
