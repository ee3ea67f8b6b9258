// Package geocoding resolves free text or map points into normalized
// addresses through an external geocoding provider.
package geocoding

import (
	"context"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
)

// Component is one typed part of a geocoded address.
type Component struct {
	LongName  string
	ShortName string
	Types     []string
}

// HasType reports whether the component is tagged with t.
func (c Component) HasType(t string) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

// Candidate is a raw provider match before normalization.
type Candidate struct {
	FormattedAddress string
	Components       []Component
	Location         geo.LatLng
}

// Provider is the external geocoding service.
type Provider interface {
	// SearchByText geocodes a free-form address. No matches is an empty slice.
	SearchByText(ctx context.Context, text string) ([]Candidate, error)

	// ReverseGeocode returns addresses at or near the point, best first.
	ReverseGeocode(ctx context.Context, point geo.LatLng) ([]Candidate, error)
}
