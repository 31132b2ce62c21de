// internal/stock/pool.go
package stock

import (
	"fmt"

	"github.com/solatis/stemkeeper/internal/types"
)

/*
 * Stock pool bookkeeping for one size class.
 *
 * A Pool has two phases. While accepting designs, Register appends designs in
 * priority order. Finalize derives the per-species ceiling (the largest max
 * any registered design could ever use) and switches the pool to accepting
 * stems, after which AddStem (match.go) is the only mutator.
 *
 * Counters:
 *   - stock:   raw stems held, unbounded
 *   - ceiling: max over designs of Design.Max, fixed at Finalize
 *   - active:  stock clipped to the ceiling on arrival; the only counter the
 *              matching scan reads
 *
 * Pools are not safe for concurrent use. Callers that share one across
 * goroutines serialize access themselves (see internal/core/assembly).
 */

// ReclipMode selects the bound the active counter is clipped to after a
// bouquet withdraws stock.
type ReclipMode int

const (
	// ReclipNumeric clips to types.MaxStems, the counter's numeric ceiling.
	// Arrival still clips to the design ceiling, so active may exceed the
	// ceiling after a withdrawal. Matching is unaffected because every hand
	// is clipped again to the design's own max.
	ReclipNumeric ReclipMode = iota

	// ReclipCeiling clips to the pool ceiling, keeping active <= ceiling.
	ReclipCeiling
)

// ParseReclipMode maps a configuration value to a ReclipMode.
func ParseReclipMode(s string) (ReclipMode, error) {
	switch s {
	case "", "numeric":
		return ReclipNumeric, nil
	case "ceiling":
		return ReclipCeiling, nil
	default:
		return 0, fmt.Errorf("unknown reclip mode %q (expected numeric or ceiling)", s)
	}
}

func (m ReclipMode) String() string {
	if m == ReclipCeiling {
		return "ceiling"
	}
	return "numeric"
}

// Option configures a Pool or Warehouse.
type Option func(*Pool)

// WithReclipMode sets the reclip target used after withdrawals.
func WithReclipMode(mode ReclipMode) Option {
	return func(p *Pool) {
		p.reclip = mode
	}
}

// Pool owns the designs and stock of a single size class.
type Pool struct {
	size    types.SizeClass
	designs []*Design
	stock   Counts
	ceiling Counts
	active  Counts
	ready   bool
	reclip  ReclipMode
}

// NewPool creates an empty pool accepting designs for size.
func NewPool(size types.SizeClass, opts ...Option) *Pool {
	p := &Pool{
		size:    size,
		designs: make([]*Design, 0, types.MaxDesigns),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the pool's size class.
func (p *Pool) Size() types.SizeClass {
	return p.size
}

// Register appends a design. Registration order is matching priority.
func (p *Pool) Register(d *Design) error {
	if p.ready {
		return types.ErrPoolFinalized
	}
	if d.Size != p.size {
		return fmt.Errorf("design %s into pool %s: %w", d.Key(), p.size, types.ErrSizeMismatch)
	}
	if len(p.designs) >= types.MaxDesigns {
		return fmt.Errorf("design %s: %w", d.Key(), types.ErrTooManyDesigns)
	}
	p.designs = append(p.designs, d)
	return nil
}

// Finalize computes the per-species ceiling and opens the pool for stems.
// Changing the ceiling after stems arrived would desynchronize the active
// counters, so a second call is refused.
func (p *Pool) Finalize() error {
	if p.ready {
		return types.ErrPoolFinalized
	}
	for _, d := range p.designs {
		for s, m := range d.Max {
			if m > p.ceiling[s] {
				p.ceiling[s] = m
			}
		}
	}
	p.ready = true
	return nil
}

// Snapshot is a point-in-time copy of a pool's counters.
type Snapshot struct {
	Size    types.SizeClass
	Stock   Counts
	Active  Counts
	Ceiling Counts
	Designs []*Design
}

// Snapshot copies the pool's counters. Designs are shared; they are immutable.
func (p *Pool) Snapshot() Snapshot {
	designs := make([]*Design, len(p.designs))
	copy(designs, p.designs)
	return Snapshot{
		Size:    p.size,
		Stock:   p.stock,
		Active:  p.active,
		Ceiling: p.ceiling,
		Designs: designs,
	}
}
