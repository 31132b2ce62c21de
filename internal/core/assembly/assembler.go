// Package assembly drives the stock engine from a record stream or from
// the gRPC surface, fanning emitted bouquets out to sinks.
package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/solatis/stemkeeper/internal/core/metrics"
	"github.com/solatis/stemkeeper/internal/records"
	"github.com/solatis/stemkeeper/internal/stock"
	"github.com/solatis/stemkeeper/internal/types"
)

// ErrHalted is wrapped by every Feed error after a sink failed. The failed
// bouquet's stems are already withdrawn, so the warehouse accepts no more.
var ErrHalted = errors.New("assembler halted")

// Sink receives every emitted bouquet in emission order.
type Sink interface {
	Emit(ctx context.Context, b stock.Bouquet) error
}

// DesignRecorder is implemented by sinks that also want each registered
// recipe, with its position in the pool's priority order.
type DesignRecorder interface {
	RecordDesign(ctx context.Context, position int, r types.Recipe) error
}

// Stats counts what an Assembler has processed.
type Stats struct {
	Designs   int
	Stems     int
	Retained  int
	Saturated int
	Bouquets  int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithSink adds a bouquet sink. Sinks run in the order added.
func WithSink(s Sink) Option {
	return func(a *Assembler) {
		a.sinks = append(a.sinks, s)
	}
}

// WithMetrics records stem and bouquet counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assembler) {
		a.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// WithReclipMode selects the pools' reclip target.
func WithReclipMode(mode stock.ReclipMode) Option {
	return func(a *Assembler) {
		a.reclip = mode
	}
}

// Assembler serializes all stems through one warehouse.
type Assembler struct {
	mu        sync.Mutex
	warehouse *stock.Warehouse
	reclip    stock.ReclipMode
	sinks     []Sink
	metrics   *metrics.Metrics
	logger    *slog.Logger
	positions map[types.SizeClass]int
	stats     Stats
	failed    error
	halted    chan struct{}
}

// New creates an Assembler with empty pools.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		logger:    slog.Default(),
		positions: make(map[types.SizeClass]int, len(types.SizeClasses)),
		halted:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.warehouse = stock.NewWarehouse(stock.WithReclipMode(a.reclip))
	return a
}

// Register tightens the recipe and appends it to its pool.
func (a *Assembler) Register(ctx context.Context, r types.Recipe) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, err := stock.NewDesign(r)
	if err != nil {
		return err
	}
	if err := a.warehouse.Register(d); err != nil {
		return err
	}

	position := a.positions[d.Size]
	a.positions[d.Size] = position + 1
	a.stats.Designs++
	a.metrics.SetDesigns(d.Size.String(), position+1)

	if !d.Satisfiable() {
		a.logger.Warn("design can never complete", "design", d.Key(), "total", d.Total)
	}
	a.logger.Debug("design registered",
		"design", d.Key(), "position", position, "species", d.Species, "total", d.Total)

	for _, s := range a.sinks {
		rec, ok := s.(DesignRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordDesign(ctx, position, r); err != nil {
			return fmt.Errorf("record design %s: %w", d.Key(), err)
		}
	}
	return nil
}

// Open finalizes both pools. No designs may be registered afterwards.
func (a *Assembler) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.warehouse.FinalizeAll(); err != nil {
		return err
	}
	a.logger.Info("warehouse open",
		"designs", a.stats.Designs,
		"small", a.positions[types.Small],
		"large", a.positions[types.Large],
		"reclip", a.reclip.String())
	return nil
}

// Feed runs one stem through the engine and hands any bouquet to the sinks.
// The first sink error halts the Assembler: that call and every later one
// return an error wrapping ErrHalted, and Halted is closed.
func (a *Assembler) Feed(ctx context.Context, stem types.Stem) (stock.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failed != nil {
		return stock.Result{}, a.failed
	}

	res, err := a.warehouse.AddStem(stem)
	if err != nil {
		return res, err
	}

	a.stats.Stems++
	a.metrics.ObserveStem(stem.Size.String(), res.Outcome.String())
	switch res.Outcome {
	case stock.OutcomeRetained:
		a.stats.Retained++
		return res, nil
	case stock.OutcomeSaturated:
		a.stats.Saturated++
		return res, nil
	}

	b := res.Bouquet
	a.stats.Bouquets++
	a.metrics.ObserveBouquet(b.Size.String(), b.Key(), b.Total())
	a.logger.Debug("bouquet assembled", "design", b.Key(), "stems", b.Total())

	// The stems are gone from stock; delivery must not depend on the caller.
	emitCtx := context.WithoutCancel(ctx)
	for _, s := range a.sinks {
		if err := s.Emit(emitCtx, b); err != nil {
			record := records.FormatBouquet(b)
			a.failed = fmt.Errorf("%w: emit %s: %w", ErrHalted, record, err)
			close(a.halted)
			a.logger.Error("sink failed, assembler halted", "bouquet", record, "error", err)
			return res, a.failed
		}
	}
	return res, nil
}

// Halted is closed once a sink has failed.
func (a *Assembler) Halted() <-chan struct{} {
	return a.halted
}

// Err returns the error that halted the Assembler, or nil.
func (a *Assembler) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Stats returns a copy of the counters.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Snapshot copies the counters of one pool.
func (a *Assembler) Snapshot(size types.SizeClass) (stock.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pool, err := a.warehouse.Route(size)
	if err != nil {
		return stock.Snapshot{}, err
	}
	return pool.Snapshot(), nil
}
