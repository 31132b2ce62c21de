package assembly

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/solatis/stemkeeper/internal/records"
)

// LoadDesigns registers every record of the design section.
// Returns the number registered.
func LoadDesigns(ctx context.Context, a *Assembler, rd *records.Reader) (int, error) {
	n := 0
	for {
		recipe, err := rd.NextDesign()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := a.Register(ctx, recipe); err != nil {
			return n, fmt.Errorf("line %d: %w", rd.Line(), err)
		}
		n++
	}
}

// Run reads the design section, opens the warehouse, then feeds every stem
// record. The first malformed record or sink failure stops the run; bouquets
// emitted before it stay emitted.
func Run(ctx context.Context, a *Assembler, r io.Reader) error {
	rd := records.NewReader(r)

	if _, err := LoadDesigns(ctx, a, rd); err != nil {
		return err
	}
	if err := a.Open(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		stem, err := rd.NextStem()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := a.Feed(ctx, stem); err != nil {
			return fmt.Errorf("line %d: %w", rd.Line(), err)
		}
	}
}
