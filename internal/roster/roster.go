// Package roster builds a roster of horses with no shared attribute.
package roster

import (
	"fmt"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/pools"
	"github.com/roach88/derby/internal/selector"
)

// Pool names used in capacity errors.
const (
	PoolNames      = "names"
	PoolConditions = "conditions"
	PoolSilks      = "silks"
	PoolColors     = "colors"
)

// Build creates count horses drawn from the catalog.
//
// Names and silks are de-duplicated before sampling. Within the returned
// roster no two horses share a name, condition, silk pair or body color
// value, and IDs run 0..count-1.
//
// The capacity of every pool is checked before the first draw; if count
// exceeds any of them Build returns a *selector.CapacityError and no horses.
func Build(rng selector.Rand, catalog pools.Catalog, count int) ([]model.Horse, error) {
	if count < 0 {
		return nil, fmt.Errorf("build roster: negative count %d", count)
	}

	clean := catalog.Clean()
	names := selector.NewPool(PoolNames, clean.Names, selector.Identity[string])
	silks := selector.NewPool(PoolSilks, clean.Silks, selector.Identity[model.SilkPair])
	colors := selector.NewPool(PoolColors, clean.Colors, pools.ColorKey)

	if err := checkCapacity(count, names.Distinct(), silks.Distinct(), colors.Distinct()); err != nil {
		return nil, fmt.Errorf("build roster: %w", err)
	}

	usedNames := selector.NewSet[string]()
	usedConditions := selector.NewSet[int]()
	usedSilks := selector.NewSet[model.SilkPair]()
	usedColors := selector.NewSet[string]()

	horses := make([]model.Horse, 0, count)
	for i := 0; i < count; i++ {
		name, err := names.Pick(rng, usedNames)
		if err != nil {
			return nil, fmt.Errorf("build roster: horse %d: %w", i, err)
		}
		condition, err := selector.PickInRange(rng, PoolConditions, pools.MinCondition, pools.MaxCondition, usedConditions)
		if err != nil {
			return nil, fmt.Errorf("build roster: horse %d: %w", i, err)
		}
		silk, err := silks.Pick(rng, usedSilks)
		if err != nil {
			return nil, fmt.Errorf("build roster: horse %d: %w", i, err)
		}
		color, err := colors.Pick(rng, usedColors)
		if err != nil {
			return nil, fmt.Errorf("build roster: horse %d: %w", i, err)
		}

		horses = append(horses, model.Horse{
			ID:        i,
			Name:      name,
			Condition: condition,
			Silks:     silk,
			Color:     color,
		})
	}

	return horses, nil
}

// Capacity returns the largest roster the catalog can supply: the smallest
// distinct cardinality among its pools and the condition range.
func Capacity(catalog pools.Catalog) int {
	clean := catalog.Clean()
	return min(
		selector.NewPool(PoolNames, clean.Names, selector.Identity[string]).Distinct(),
		selector.NewPool(PoolSilks, clean.Silks, selector.Identity[model.SilkPair]).Distinct(),
		selector.NewPool(PoolColors, clean.Colors, pools.ColorKey).Distinct(),
		pools.ConditionSupply(),
	)
}

func checkCapacity(count, names, silks, colors int) error {
	checks := []struct {
		pool   string
		supply int
	}{
		{PoolNames, names},
		{PoolConditions, pools.ConditionSupply()},
		{PoolSilks, silks},
		{PoolColors, colors},
	}
	for _, c := range checks {
		if err := selector.Require(c.pool, count, c.supply); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that horses form a well-formed roster: IDs run 0..n-1 in
// order, conditions lie in range, and no attribute is shared.
func Validate(horses []model.Horse) error {
	names := make(map[string]int, len(horses))
	conditions := make(map[int]int, len(horses))
	silks := make(map[model.SilkPair]int, len(horses))
	colors := make(map[string]int, len(horses))

	for i, h := range horses {
		if h.ID != i {
			return fmt.Errorf("horse %d: id %d out of order", i, h.ID)
		}
		if h.Condition < pools.MinCondition || h.Condition > pools.MaxCondition {
			return fmt.Errorf("horse %d: condition %d outside [%d, %d]", i, h.Condition, pools.MinCondition, pools.MaxCondition)
		}
		if j, dup := names[h.Name]; dup {
			return fmt.Errorf("horse %d: name %q already used by horse %d", i, h.Name, j)
		}
		if j, dup := conditions[h.Condition]; dup {
			return fmt.Errorf("horse %d: condition %d already used by horse %d", i, h.Condition, j)
		}
		if j, dup := silks[h.Silks]; dup {
			return fmt.Errorf("horse %d: silks %v already used by horse %d", i, h.Silks, j)
		}
		if j, dup := colors[pools.ColorKey(h.Color)]; dup {
			return fmt.Errorf("horse %d: color %s already used by horse %d", i, h.Color.Value, j)
		}
		names[h.Name] = i
		conditions[h.Condition] = i
		silks[h.Silks] = i
		colors[pools.ColorKey(h.Color)] = i
	}
	return nil
}

// BestCondition returns the highest condition in the roster, or 0 when the
// roster is empty.
func BestCondition(horses []model.Horse) int {
	best := 0
	for _, h := range horses {
		if h.Condition > best {
			best = h.Condition
		}
	}
	return best
}
