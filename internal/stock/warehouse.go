package stock

import (
	"fmt"

	"github.com/solatis/stemkeeper/internal/types"
)

// Warehouse owns the Small and Large pools and routes records by size.
// The pools share no state.
type Warehouse struct {
	small *Pool
	large *Pool
}

// NewWarehouse creates both pools with the same options.
func NewWarehouse(opts ...Option) *Warehouse {
	return &Warehouse{
		small: NewPool(types.Small, opts...),
		large: NewPool(types.Large, opts...),
	}
}

// Route returns the pool for size.
func (w *Warehouse) Route(size types.SizeClass) (*Pool, error) {
	switch size {
	case types.Small:
		return w.small, nil
	case types.Large:
		return w.large, nil
	default:
		return nil, types.ErrInvalidSize
	}
}

// Register routes a design to its pool.
func (w *Warehouse) Register(d *Design) error {
	pool, err := w.Route(d.Size)
	if err != nil {
		return err
	}
	return pool.Register(d)
}

// FinalizeAll finalizes both pools. Must run once, after the last design
// and before the first stem.
func (w *Warehouse) FinalizeAll() error {
	if err := w.small.Finalize(); err != nil {
		return fmt.Errorf("small pool: %w", err)
	}
	if err := w.large.Finalize(); err != nil {
		return fmt.Errorf("large pool: %w", err)
	}
	return nil
}

// AddStem routes a stem to its pool and runs the matching engine.
func (w *Warehouse) AddStem(stem types.Stem) (Result, error) {
	pool, err := w.Route(stem.Size)
	if err != nil {
		return Result{}, err
	}
	return pool.AddStem(stem.Species)
}
