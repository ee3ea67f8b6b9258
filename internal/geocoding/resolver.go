package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

var (
	ErrNotFound    = errors.New("location not found")
	ErrUnavailable = errors.New("geocoding is not configured")
	ErrEmptyQuery  = errors.New("query requires text or a point")
)

// Address component types, most specific first.
const (
	typeLocality   = "locality"
	typeAdminArea2 = "administrative_area_level_2"
	typeAdminArea1 = "administrative_area_level_1"
	typePostalCode = "postal_code"
)

// LocationResult is a normalized address.
type LocationResult struct {
	FormattedAddress string     `json:"formattedAddress"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	PostalCode       string     `json:"postalCode"`
	MapReference     string     `json:"mapReference"`
	Point            geo.LatLng `json:"point"`
}

// Query is either free text or a point. Point wins when both are set.
type Query struct {
	Point *geo.LatLng
	Text  string
}

// Resolver turns queries into normalized locations.
type Resolver struct {
	provider Provider
	log      *logger.Logger
}

// NewResolver creates a Resolver. A nil provider yields a resolver whose
// Resolve always returns ErrUnavailable.
func NewResolver(provider Provider, log *logger.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Enabled reports whether a provider is configured.
func (r *Resolver) Enabled() bool {
	return r.provider != nil
}

// Resolve geocodes the query and normalizes the best candidate.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*LocationResult, error) {
	if !r.Enabled() {
		return nil, ErrUnavailable
	}

	var (
		candidates []Candidate
		err        error
	)
	switch {
	case q.Point != nil:
		if err := q.Point.Validate(); err != nil {
			return nil, err
		}
		candidates, err = r.provider.ReverseGeocode(ctx, *q.Point)
	case strings.TrimSpace(q.Text) != "":
		candidates, err = r.provider.SearchByText(ctx, strings.TrimSpace(q.Text))
	default:
		return nil, ErrEmptyQuery
	}
	if err != nil {
		return nil, fmt.Errorf("failed to geocode: %w", err)
	}

	for _, c := range candidates {
		res := Extract(c)
		if res.City != "" {
			r.log.Debug("Location resolved", map[string]interface{}{
				"city":  res.City,
				"state": res.State,
			})
			return &res, nil
		}
	}
	return nil, ErrNotFound
}

// Extract normalizes a candidate. City prefers the locality component and
// falls back to the broader administrative area.
func Extract(c Candidate) LocationResult {
	res := LocationResult{
		FormattedAddress: c.FormattedAddress,
		Point:            c.Location,
		MapReference:     MapReference(c.Location),
	}

	var adminArea2 string
	for _, comp := range c.Components {
		switch {
		case comp.HasType(typeLocality):
			res.City = comp.LongName
		case comp.HasType(typeAdminArea2):
			adminArea2 = comp.LongName
		case comp.HasType(typeAdminArea1):
			res.State = comp.LongName
		case comp.HasType(typePostalCode):
			res.PostalCode = comp.ShortName
		}
	}
	if res.City == "" {
		res.City = adminArea2
	}
	return res
}

// MapReference builds a shareable maps link for a point.
func MapReference(p geo.LatLng) string {
	return "https://www.google.com/maps/search/?api=1&query=" +
		strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// MatchServiceable finds the serviceable location for a resolved city.
func MatchServiceable(res *LocationResult, locations []models.Location) (*models.Location, bool) {
	if res == nil {
		return nil, false
	}
	for i := range locations {
		if cities.Equal(locations[i].City, res.City) {
			return &locations[i], true
		}
	}
	return nil, false
}
