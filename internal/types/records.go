// internal/types/records.go
package types

/*
 * Raw input records.
 *
 * Recipe and Stem are the validated-but-unprocessed forms produced by
 * internal/records. The stock engine turns a Recipe into a tightened
 * stock.Design; Stem is consumed as-is.
 *
 * Key types:
 *   - Allotment: one (max-count, species) pair from a design record
 *   - Recipe: a full design-definition record
 *   - Stem: a single incoming stem
 *
 * Dependencies: None
 */

// Allotment is one (max-count, species) pair of a design record.
type Allotment struct {
	Species Species
	Max     int
}

// Recipe is a parsed design-definition record prior to tightening.
type Recipe struct {
	Name       DesignName
	Size       SizeClass
	Allotments []Allotment // in record order
	Total      int
}

// Stem is a parsed stem record.
type Stem struct {
	Species Species
	Size    SizeClass
}
