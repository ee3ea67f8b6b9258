package leads

import (
	"time"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
)

const folioLayout = "20060102150405"

// NewFolio builds the human-readable reference quoted to customers, e.g.
// "MER-20240315143005". Two leads for the same city created within the same
// second share a folio; the lead id is the only unique key.
func NewFolio(city string, at time.Time) string {
	return cities.Initials(city) + "-" + at.Format(folioLayout)
}
