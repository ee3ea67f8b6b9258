package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
)

// Polygon is a single-ring roof outline stored as GeoJSON.
// Coordinates follow GeoJSON order: [rings][points][lng,lat], with the ring
// closed (first point repeated last). SRID 4326 (WGS84).
type Polygon struct {
	Coordinates [][][2]float64
}

// NewPolygon builds a closed GeoJSON ring from drawn vertices. Fewer than
// three vertices produce an empty polygon.
func NewPolygon(vertices []geo.LatLng) Polygon {
	if len(vertices) < geo.MinVertices {
		return Polygon{}
	}

	ring := make([][2]float64, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, [2]float64{v.Lng, v.Lat})
	}
	ring = append(ring, ring[0])

	return Polygon{Coordinates: [][][2]float64{ring}}
}

// Vertices returns the outer ring as lat/lng points without the closing point.
func (p Polygon) Vertices() []geo.LatLng {
	if len(p.Coordinates) == 0 || len(p.Coordinates[0]) == 0 {
		return nil
	}

	ring := p.Coordinates[0]
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}

	out := make([]geo.LatLng, 0, n)
	for _, c := range ring[:n] {
		out = append(out, geo.LatLng{Lat: c[1], Lng: c[0]})
	}
	return out
}

// IsEmpty reports whether the polygon has no ring.
func (p Polygon) IsEmpty() bool {
	return len(p.Coordinates) == 0
}

type geoJSONPolygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Scan implements sql.Scanner for the jsonb column holding the outline.
func (p *Polygon) Scan(value interface{}) error {
	if value == nil {
		p.Coordinates = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan Polygon: expected []byte, got %T", value)
	}

	return p.UnmarshalJSON(data)
}

// Value implements driver.Valuer. Empty polygons are stored as NULL.
func (p Polygon) Value() (driver.Value, error) {
	if p.IsEmpty() {
		return nil, nil
	}

	geoJSON, err := json.Marshal(geoJSONPolygon{Type: "Polygon", Coordinates: p.Coordinates})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon to GeoJSON: %w", err)
	}
	return string(geoJSON), nil
}

// MarshalJSON renders the polygon as a GeoJSON geometry, or null when empty.
func (p Polygon) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(geoJSONPolygon{Type: "Polygon", Coordinates: p.Coordinates})
}

// UnmarshalJSON parses a GeoJSON Polygon geometry.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.Coordinates = nil
		return nil
	}

	var geom geoJSONPolygon
	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	return nil
}
