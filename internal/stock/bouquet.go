package stock

import "github.com/solatis/stemkeeper/internal/types"

// Bouquet is an assembled bouquet: the design it completes and the stems
// drawn per species.
type Bouquet struct {
	Design types.DesignName
	Size   types.SizeClass
	Stems  Counts
}

// Total returns the number of stems in the bouquet.
func (b *Bouquet) Total() int {
	return b.Stems.Sum()
}

// Key returns the design key, e.g. "AS".
func (b *Bouquet) Key() string {
	return string([]byte{byte(b.Design), byte(b.Size)})
}
