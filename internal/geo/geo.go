// Package geo computes surface measurements for user-drawn roof outlines.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the sphere radius used by web map providers for
// geodesic measurements. Areas computed here match what the client map shows.
const EarthRadiusMeters = 6378137.0

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// MinVertices is the smallest vertex count that encloses an area.
const MinVertices = 3

// ErrInvalidCoordinates is returned when a vertex lies outside the valid
// latitude/longitude range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// LatLng is a geographic point in decimal degrees (WGS84).
type LatLng struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// Validate checks the point is inside the WGS84 coordinate range.
func (p LatLng) Validate() error {
	if p.Lat < MinLatitude || p.Lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, p.Lat)
	}
	if p.Lng < MinLongitude || p.Lng > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, p.Lng)
	}
	return nil
}

// ValidateRing validates every vertex of a ring.
func ValidateRing(vertices []LatLng) error {
	for i, v := range vertices {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	return nil
}

// Area returns the surface area in square meters enclosed by the ring,
// rounded to the nearest whole square meter. The first vertex is implicitly
// joined to the last. Rings with fewer than three vertices, and rings whose
// vertices enclose nothing, have zero area. The result does not depend on the
// starting vertex or on the winding order.
func Area(vertices []LatLng) float64 {
	if len(vertices) < MinVertices {
		return 0
	}
	return math.Round(math.Abs(signedArea(vertices, EarthRadiusMeters)))
}

// signedArea sums the signed areas of the polar triangles formed by each edge
// and the north pole. Counter-clockwise rings are positive.
func signedArea(vertices []LatLng, radius float64) float64 {
	prev := vertices[len(vertices)-1]
	prevTanLat := math.Tan((math.Pi/2 - toRadians(prev.Lat)) / 2)
	prevLng := toRadians(prev.Lng)

	var total float64
	for _, v := range vertices {
		tanLat := math.Tan((math.Pi/2 - toRadians(v.Lat)) / 2)
		lng := toRadians(v.Lng)
		total += polarTriangleArea(tanLat, lng, prevTanLat, prevLng)
		prevTanLat = tanLat
		prevLng = lng
	}
	return total * radius * radius
}

// polarTriangleArea returns the signed spherical excess of the triangle with
// vertices at the pole and two points given by tan(colatitude/2) and
// longitude in radians.
func polarTriangleArea(tan1, lng1, tan2, lng2 float64) float64 {
	deltaLng := lng1 - lng2
	t := tan1 * tan2
	return 2 * math.Atan2(t*math.Sin(deltaLng), 1+t*math.Cos(deltaLng))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundsCenter returns the centre of the bounding box of the ring. The second
// return value is false for an empty ring.
func BoundsCenter(vertices []LatLng) (LatLng, bool) {
	if len(vertices) == 0 {
		return LatLng{}, false
	}

	minLat, maxLat := vertices[0].Lat, vertices[0].Lat
	minLng, maxLng := vertices[0].Lng, vertices[0].Lng
	for _, v := range vertices[1:] {
		minLat = math.Min(minLat, v.Lat)
		maxLat = math.Max(maxLat, v.Lat)
		minLng = math.Min(minLng, v.Lng)
		maxLng = math.Max(maxLng, v.Lng)
	}

	return LatLng{
		Lat: (minLat + maxLat) / 2,
		Lng: (minLng + maxLng) / 2,
	}, true
}
