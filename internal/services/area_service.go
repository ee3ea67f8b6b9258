package services

import (
	"context"
	"errors"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geocoding"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/metrics"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// LocationSource lists serviceable cities.
type LocationSource interface {
	Locations(ctx context.Context) ([]models.Location, error)
}

// AreaResult is the outcome of drawing a roof outline.
type AreaResult struct {
	Location    *geocoding.LocationResult `json:"location,omitempty"`
	Branch      *models.Location          `json:"branch,omitempty"`
	Polygon     models.Polygon            `json:"polygon"`
	Area        float64                   `json:"area"`
	Serviceable bool                      `json:"serviceable"`
}

// SearchResult is a geocoded address with its serviceable branch, if any.
type SearchResult struct {
	Location    *geocoding.LocationResult `json:"location"`
	Branch      *models.Location          `json:"branch,omitempty"`
	Serviceable bool                      `json:"serviceable"`
}

// AreaService defines the interface for drawing and locating roofs.
type AreaService interface {
	// DrawArea measures the outline and, when it encloses an area, reverse
	// geocodes its centre. Geocoding failures are logged and leave Location
	// empty. Returns geo.ErrInvalidCoordinates for out-of-range vertices.
	DrawArea(ctx context.Context, vertices []geo.LatLng) (*AreaResult, error)

	// Search geocodes a free-text address. Returns geocoding.ErrEmptyQuery,
	// geocoding.ErrNotFound or geocoding.ErrUnavailable.
	Search(ctx context.Context, text string) (*SearchResult, error)
}

type areaService struct {
	resolver  *geocoding.Resolver
	locations LocationSource
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewAreaService creates a new instance of AreaService.
func NewAreaService(resolver *geocoding.Resolver, locations LocationSource, m *metrics.Metrics, log *logger.Logger) AreaService {
	return &areaService{
		resolver:  resolver,
		locations: locations,
		metrics:   m,
		log:       log,
	}
}

func (s *areaService) DrawArea(ctx context.Context, vertices []geo.LatLng) (*AreaResult, error) {
	if err := geo.ValidateRing(vertices); err != nil {
		s.log.Warn("Invalid outline provided", map[string]interface{}{
			"vertices": len(vertices),
			"error":    err.Error(),
		})
		return nil, err
	}

	res := &AreaResult{
		Polygon: models.NewPolygon(vertices),
		Area:    geo.Area(vertices),
	}
	if res.Polygon.IsEmpty() || !s.resolver.Enabled() {
		return res, nil
	}

	centre, _ := geo.BoundsCenter(vertices)
	loc, err := s.resolver.Resolve(ctx, geocoding.Query{Point: &centre})
	if err != nil {
		s.metrics.GeocodeFailed()
		s.log.Warn("Reverse geocoding failed, returning area only", map[string]interface{}{
			"lat":   centre.Lat,
			"lng":   centre.Lng,
			"error": err.Error(),
		})
		return res, nil
	}

	res.Location = loc
	res.Branch, res.Serviceable = s.matchBranch(ctx, loc)
	return res, nil
}

func (s *areaService) Search(ctx context.Context, text string) (*SearchResult, error) {
	loc, err := s.resolver.Resolve(ctx, geocoding.Query{Text: text})
	if err != nil {
		if !errors.Is(err, geocoding.ErrNotFound) && !errors.Is(err, geocoding.ErrEmptyQuery) {
			s.log.Warn("Address search failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}

	res := &SearchResult{Location: loc}
	res.Branch, res.Serviceable = s.matchBranch(ctx, loc)
	return res, nil
}

// matchBranch treats a failing location listing as "not serviceable"
// rather than failing the lookup.
func (s *areaService) matchBranch(ctx context.Context, loc *geocoding.LocationResult) (*models.Location, bool) {
	locs, err := s.locations.Locations(ctx)
	if err != nil {
		s.log.Error("Failed to list locations", err, nil)
		return nil, false
	}
	return geocoding.MatchServiceable(loc, locs)
}
