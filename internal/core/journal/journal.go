// Package journal records assembly runs for audit: the designs registered,
// every emitted bouquet in order, and final counters. It is write-only from
// the engine's point of view; nothing is replayed into pool state.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/solatis/stemkeeper/internal/core/db"
	"github.com/solatis/stemkeeper/internal/records"
	"github.com/solatis/stemkeeper/internal/stock"
	"github.com/solatis/stemkeeper/internal/types"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run id has no journal entry.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table.
type Run struct {
	ID         types.RunID  `db:"run_id"`
	Reclip     string       `db:"reclip"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
	Stems      int          `db:"stems"`
	Bouquets   int          `db:"bouquets"`
	Status     string       `db:"status"`
}

// Design is one registered recipe of a run.
type Design struct {
	RunID    types.RunID `db:"run_id"`
	Size     string      `db:"size"`
	Position int         `db:"position"`
	Name     string      `db:"name"`
	Record   string      `db:"record"`
}

// Bouquet is one emitted bouquet of a run.
type Bouquet struct {
	ID        types.BouquetID `db:"bouquet_id"`
	RunID     types.RunID     `db:"run_id"`
	Seq       int             `db:"seq"`
	Design    string          `db:"design"`
	Size      string          `db:"size"`
	Stems     int             `db:"stems"`
	Record    string          `db:"record"`
	EmittedAt time.Time       `db:"emitted_at"`
}

// Journal writes one run. It implements assembly.Sink and
// assembly.DesignRecorder.
type Journal struct {
	q     *db.Queries
	runID types.RunID
	now   func() time.Time

	mu  sync.Mutex
	seq int
}

// Start inserts a new run in the running state.
func Start(ctx context.Context, q *db.Queries, reclip stock.ReclipMode) (*Journal, error) {
	j := &Journal{
		q:     q,
		runID: types.NewRunID(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	if _, err := q.Exec(ctx, "insert-run", j.runID, reclip.String(), j.now()); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return j, nil
}

// RunID identifies the run being written.
func (j *Journal) RunID() types.RunID {
	return j.runID
}

// RecordDesign stores a registered recipe.
func (j *Journal) RecordDesign(ctx context.Context, position int, r types.Recipe) error {
	_, err := j.q.Exec(ctx, "insert-design",
		j.runID, r.Size.String(), position, r.Name.String(), records.FormatRecipe(r))
	if err != nil {
		return fmt.Errorf("failed to record design: %w", err)
	}
	return nil
}

// Emit appends a bouquet with the next sequence number.
func (j *Journal) Emit(ctx context.Context, b stock.Bouquet) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.q.Exec(ctx, "insert-bouquet",
		types.NewBouquetID(), j.runID, j.seq+1, b.Key(), b.Size.String(),
		b.Total(), records.FormatBouquet(b), j.now())
	if err != nil {
		return fmt.Errorf("failed to record bouquet: %w", err)
	}
	j.seq++
	return nil
}

// Finish closes the run with its final counters. A non-nil runErr marks
// the run failed.
func (j *Journal) Finish(ctx context.Context, stems, bouquets int, runErr error) error {
	status := StatusCompleted
	if runErr != nil {
		status = StatusFailed
	}
	_, err := j.q.Exec(ctx, "finish-run", j.now(), stems, bouquets, status, j.runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun loads a run.
func GetRun(ctx context.Context, q *db.Queries, id types.RunID) (Run, error) {
	var run Run
	err := q.Get(ctx, "get-run", &run, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. Run ids are UUIDv7 and
// sort by start time.
func ListRuns(ctx context.Context, q *db.Queries, limit int) ([]Run, error) {
	var runs []Run
	if err := q.Select(ctx, "list-runs", &runs, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListDesigns returns a run's designs ordered by size then position.
func ListDesigns(ctx context.Context, q *db.Queries, id types.RunID) ([]Design, error) {
	var designs []Design
	if err := q.Select(ctx, "list-designs", &designs, id); err != nil {
		return nil, err
	}
	return designs, nil
}

// ListBouquets returns a run's bouquets in emission order.
func ListBouquets(ctx context.Context, q *db.Queries, id types.RunID) ([]Bouquet, error) {
	var bouquets []Bouquet
	if err := q.Select(ctx, "list-bouquets", &bouquets, id); err != nil {
		return nil, err
	}
	return bouquets, nil
}
