package records

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/solatis/stemkeeper/internal/types"
)

// ErrDesignsPending is returned by NextStem while the design section still
// has unread records.
var ErrDesignsPending = errors.New("records: design section not finished")

const (
	sectionDesigns = iota
	sectionStems
)

// Reader reads the two input sections: design records, then stem records.
// Each section ends at an empty line or at end of input.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	section int
	done    bool // current section exhausted
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// NextDesign returns the next design record, or io.EOF at the end of the
// design section.
func (r *Reader) NextDesign() (types.Recipe, error) {
	if r.section != sectionDesigns {
		return types.Recipe{}, io.EOF
	}
	text, err := r.next()
	if err != nil {
		return types.Recipe{}, err
	}
	recipe, err := ParseDesign(text)
	return recipe, r.annotate(err)
}

// NextStem returns the next stem record, or io.EOF at the end of the stem
// section. The first call after the design section ended opens the stem
// section.
func (r *Reader) NextStem() (types.Stem, error) {
	if r.section == sectionDesigns {
		if !r.done {
			return types.Stem{}, ErrDesignsPending
		}
		r.section = sectionStems
		r.done = false
	}
	text, err := r.next()
	if err != nil {
		return types.Stem{}, err
	}
	stem, err := ParseStem(text)
	return stem, r.annotate(err)
}

func (r *Reader) next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	if !r.sc.Scan() {
		r.done = true
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	r.line++
	text := strings.TrimSuffix(r.sc.Text(), "\r")
	if text == "" {
		r.done = true
		return "", io.EOF
	}
	return text, nil
}

func (r *Reader) annotate(err error) error {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		syntaxErr.Line = r.line
	}
	return err
}
