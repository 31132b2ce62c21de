package types

import "errors"

// Sentinel errors for stemkeeper operations.
var (
	// ErrInvalidDesignName indicates a design name outside A-Z.
	ErrInvalidDesignName = errors.New("invalid design name")

	// ErrInvalidSpecies indicates a species symbol outside a-z.
	ErrInvalidSpecies = errors.New("invalid species")

	// ErrInvalidSize indicates a size tag other than S or L.
	ErrInvalidSize = errors.New("invalid size")

	// ErrTrailingInput indicates characters after the end of a record.
	ErrTrailingInput = errors.New("record contains additional characters")

	// ErrMissingCount indicates a species symbol with no preceding count.
	ErrMissingCount = errors.New("missing stem count")

	// ErrMissingTotal indicates a design record without a trailing total.
	ErrMissingTotal = errors.New("missing design total")

	// ErrCountOutOfRange indicates a count or total above MaxStems.
	ErrCountOutOfRange = errors.New("stem count out of range")

	// ErrEmptyRecord indicates an empty record where one was required.
	ErrEmptyRecord = errors.New("empty record")

	// ErrDuplicateSpecies indicates a species listed twice in one design.
	ErrDuplicateSpecies = errors.New("species listed more than once")

	// ErrTooManyDesigns indicates a size class already holds MaxDesigns designs.
	ErrTooManyDesigns = errors.New("too many designs for size class")

	// ErrSizeMismatch indicates a design registered with the wrong pool.
	ErrSizeMismatch = errors.New("design size does not match pool")

	// ErrPoolFinalized indicates a design registration or finalization after
	// the pool started accepting stems.
	ErrPoolFinalized = errors.New("pool already finalized")

	// ErrPoolNotReady indicates a stem arrived before the pool was finalized.
	ErrPoolNotReady = errors.New("pool not finalized")
)
