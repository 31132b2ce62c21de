package types

// Species is a slot in the fixed species alphabet. Symbol 'a' maps to slot 0
// and 'z' to slot 25; the slot is used directly as an array index.
type Species uint8

// ParseSpecies maps a lowercase species symbol to its slot.
func ParseSpecies(b byte) (Species, error) {
	if b < 'a' || b > 'z' {
		return 0, ErrInvalidSpecies
	}
	return Species(b - 'a'), nil
}

// Symbol returns the lowercase letter for the slot.
func (s Species) Symbol() byte {
	return 'a' + byte(s)
}

// Valid reports whether s is inside the alphabet.
func (s Species) Valid() bool {
	return s < NumSpecies
}

func (s Species) String() string {
	if !s.Valid() {
		return "?"
	}
	return string(rune(s.Symbol()))
}
