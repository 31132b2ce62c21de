package records

import (
	"strconv"

	"github.com/solatis/stemkeeper/internal/stock"
	"github.com/solatis/stemkeeper/internal/types"
)

// AppendBouquet appends <NAME><SIZE>(<count><species>)* in ascending species
// order, without a trailing newline.
func AppendBouquet(dst []byte, b stock.Bouquet) []byte {
	dst = append(dst, byte(b.Design), byte(b.Size))
	for s, n := range b.Stems {
		if n == 0 {
			continue
		}
		dst = strconv.AppendInt(dst, int64(n), 10)
		dst = append(dst, types.Species(s).Symbol())
	}
	return dst
}

// FormatBouquet returns the bouquet record.
func FormatBouquet(b stock.Bouquet) string {
	return string(AppendBouquet(make([]byte, 0, 16), b))
}

// FormatRecipe renders a recipe back into design-record form.
func FormatRecipe(r types.Recipe) string {
	dst := make([]byte, 0, 16)
	dst = append(dst, byte(r.Name), byte(r.Size))
	for _, a := range r.Allotments {
		dst = strconv.AppendInt(dst, int64(a.Max), 10)
		dst = append(dst, a.Species.Symbol())
	}
	dst = strconv.AppendInt(dst, int64(r.Total), 10)
	return string(dst)
}
