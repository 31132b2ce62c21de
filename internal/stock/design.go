// internal/stock/design.go
package stock

import (
	"fmt"

	"github.com/solatis/stemkeeper/internal/types"
)

/*
 * Design construction and range tightening.
 *
 * Turns a types.Recipe into a Design whose per-species [Min, Max] ranges are
 * as tight as the recipe allows. Tightening runs once, here, and is never
 * revisited; the matching engine relies on it to reject infeasible designs
 * with a single elementwise comparison.
 *
 * Tightening workflow:
 *   1. Max pass: no species may supply more than the total minus one stem
 *      from every other listed species: max = min(given, 1 + total - k).
 *   2. Min pass: with every other species saturated at its tightened max,
 *      the species must still cover the shortfall:
 *      min = max(1, total - sum(other max)).
 *
 * The max pass must complete before the min pass reads the sum. One forward
 * sweep each reaches the fixed point because species constrain each other
 * only through the shared total.
 *
 * Unsatisfiable recipes are not errors. A species listed with count 0, or a
 * recipe with more species than its total, ends up with max < min for some
 * species and simply never matches.
 */

// Counts is a per-species table indexed by types.Species.
type Counts [types.NumSpecies]int

// Sum returns the total over all species.
func (c *Counts) Sum() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Design is a tightened bouquet recipe. Immutable after NewDesign.
type Design struct {
	Name    types.DesignName
	Size    types.SizeClass
	Total   int
	Min     Counts
	Max     Counts
	Species int // distinct species listed in the recipe
}

// NewDesign validates a recipe and tightens its ranges.
func NewDesign(recipe types.Recipe) (*Design, error) {
	if !recipe.Name.Valid() {
		return nil, types.ErrInvalidDesignName
	}
	if !recipe.Size.Valid() {
		return nil, types.ErrInvalidSize
	}
	if recipe.Total < 0 || recipe.Total > types.MaxStems {
		return nil, fmt.Errorf("total %d: %w", recipe.Total, types.ErrCountOutOfRange)
	}

	d := &Design{
		Name:    recipe.Name,
		Size:    recipe.Size,
		Total:   recipe.Total,
		Species: len(recipe.Allotments),
	}

	var listed [types.NumSpecies]bool
	for _, a := range recipe.Allotments {
		if !a.Species.Valid() {
			return nil, types.ErrInvalidSpecies
		}
		if a.Max < 0 || a.Max > types.MaxStems {
			return nil, fmt.Errorf("species %s count %d: %w", a.Species, a.Max, types.ErrCountOutOfRange)
		}
		if listed[a.Species] {
			return nil, fmt.Errorf("species %s: %w", a.Species, types.ErrDuplicateSpecies)
		}
		listed[a.Species] = true
	}

	// Max pass
	limit := 1 + recipe.Total - len(recipe.Allotments)
	sumMax := 0
	for _, a := range recipe.Allotments {
		m := max(min(a.Max, limit), 0)
		d.Max[a.Species] = m
		sumMax += m
	}

	// Min pass, reads the completed max sum
	for _, a := range recipe.Allotments {
		others := sumMax - d.Max[a.Species]
		d.Min[a.Species] = max(1, recipe.Total-others)
	}

	return d, nil
}

// Satisfiable reports whether any bouquet could ever complete this design
// given unlimited stock.
func (d *Design) Satisfiable() bool {
	if d.Max.Sum() < d.Total {
		return false
	}
	for s := range d.Min {
		if d.Min[s] > d.Max[s] {
			return false
		}
	}
	return true
}

// Key returns the design's name and size as printed in records, e.g. "AS".
func (d *Design) Key() string {
	return string([]byte{byte(d.Name), byte(d.Size)})
}
