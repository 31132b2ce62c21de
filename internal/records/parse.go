// Package records implements the line-oriented record formats: design
// definitions, stems, and assembled bouquets.
package records

import (
	"fmt"

	"github.com/solatis/stemkeeper/internal/types"
)

// Record kinds reported in SyntaxError.
const (
	KindDesign = "design"
	KindStem   = "stem"
)

// SyntaxError describes a malformed record. Err is one of the types
// sentinels so callers can test with errors.Is.
type SyntaxError struct {
	Kind   string // KindDesign or KindStem
	Line   int    // 1-based input line, 0 when parsed outside a Reader
	Offset int    // byte offset of the offending character
	Record string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s record %q at offset %d: %v", e.Line, e.Kind, e.Record, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s record %q at offset %d: %v", e.Kind, e.Record, e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ParseDesign parses <NAME><SIZE>(<count><species>)*<total>.
// Species uniqueness and count ranges beyond MaxStems are also checked here
// so a bad record is reported with its position.
func ParseDesign(record string) (types.Recipe, error) {
	fail := func(offset int, err error) (types.Recipe, error) {
		return types.Recipe{}, &SyntaxError{Kind: KindDesign, Offset: offset, Record: record, Err: err}
	}

	if len(record) == 0 {
		return fail(0, types.ErrEmptyRecord)
	}
	name, err := types.ParseDesignName(record[0])
	if err != nil {
		return fail(0, err)
	}
	if len(record) < 2 {
		return fail(1, types.ErrInvalidSize)
	}
	size, err := types.ParseSizeClass(record[1])
	if err != nil {
		return fail(1, err)
	}

	recipe := types.Recipe{Name: name, Size: size}
	var seen [types.NumSpecies]bool
	pos := 2
	for {
		start := pos
		n, next, ok := parseCount(record, pos)
		if !ok {
			return fail(start, types.ErrCountOutOfRange)
		}
		pos = next
		if pos == len(record) {
			if pos == start {
				// With two or more allotments the last count reads as the
				// total and its species symbol as trailing input.
				if len(recipe.Allotments) > 1 {
					return fail(pos-1, types.ErrTrailingInput)
				}
				return fail(pos, types.ErrMissingTotal)
			}
			recipe.Total = n
			return recipe, nil
		}

		species, err := types.ParseSpecies(record[pos])
		if err != nil {
			return fail(pos, err)
		}
		if pos == start {
			return fail(pos, types.ErrMissingCount)
		}
		if seen[species] {
			return fail(pos, types.ErrDuplicateSpecies)
		}
		seen[species] = true
		recipe.Allotments = append(recipe.Allotments, types.Allotment{Species: species, Max: n})
		pos++
	}
}

// parseCount reads a run of decimal digits starting at pos. ok is false when
// the value exceeds MaxStems.
func parseCount(s string, pos int) (n, next int, ok bool) {
	for next = pos; next < len(s) && s[next] >= '0' && s[next] <= '9'; next++ {
		n = n*10 + int(s[next]-'0')
		if n > types.MaxStems {
			return 0, next, false
		}
	}
	return n, next, true
}

// ParseStem parses <species><size> with nothing following.
func ParseStem(record string) (types.Stem, error) {
	fail := func(offset int, err error) (types.Stem, error) {
		return types.Stem{}, &SyntaxError{Kind: KindStem, Offset: offset, Record: record, Err: err}
	}

	if len(record) == 0 {
		return fail(0, types.ErrEmptyRecord)
	}
	species, err := types.ParseSpecies(record[0])
	if err != nil {
		return fail(0, err)
	}
	if len(record) < 2 {
		return fail(1, types.ErrInvalidSize)
	}
	size, err := types.ParseSizeClass(record[1])
	if err != nil {
		return fail(1, err)
	}
	if len(record) > 2 {
		return fail(2, types.ErrTrailingInput)
	}
	return types.Stem{Species: species, Size: size}, nil
}
