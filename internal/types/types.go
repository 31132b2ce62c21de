// Package types provides domain models shared across stemkeeper components.
//
// Zero-dependency design: species, size classes and raw records use only the
// standard library so the record codec and the stock engine can share them
// without pulling in storage or transport. ID utilities in ids.go import uuid
// but are isolated for selective inclusion.
package types

import "math"

// Resource limits enforced by the record codec and the stock engine.
const (
	// NumSpecies is the size of the species alphabet (a-z).
	// Every per-species table in the engine is a fixed array of this length.
	NumSpecies = 26

	// MaxDesigns bounds the designs held by a single size class.
	// Design names are single uppercase letters, so 26 is also the number
	// of distinct names available per size class.
	MaxDesigns = 26

	// MaxStems is the largest count or total accepted in a design record.
	// It is also the numeric ceiling the active counter is reclipped to
	// after a withdrawal.
	MaxStems = math.MaxInt8
)

// SizeClass selects the stock pool a design or stem belongs to.
type SizeClass byte

const (
	Small SizeClass = 'S'
	Large SizeClass = 'L'
)

// SizeClasses lists the known size classes in routing order.
var SizeClasses = [...]SizeClass{Small, Large}

// ParseSizeClass validates a size tag.
func ParseSizeClass(b byte) (SizeClass, error) {
	switch SizeClass(b) {
	case Small, Large:
		return SizeClass(b), nil
	default:
		return 0, ErrInvalidSize
	}
}

// Valid reports whether s is one of the known size classes.
func (s SizeClass) Valid() bool {
	return s == Small || s == Large
}

func (s SizeClass) String() string {
	if !s.Valid() {
		return "?"
	}
	return string(rune(s))
}

// DesignName is the single uppercase letter naming a design within its size class.
type DesignName byte

// ParseDesignName validates a design name symbol.
func ParseDesignName(b byte) (DesignName, error) {
	if b < 'A' || b > 'Z' {
		return 0, ErrInvalidDesignName
	}
	return DesignName(b), nil
}

// Valid reports whether n is in A-Z.
func (n DesignName) Valid() bool {
	return n >= 'A' && n <= 'Z'
}

func (n DesignName) String() string {
	return string(rune(n))
}
