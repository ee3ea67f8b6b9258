package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
)

const (
	// DefaultGoogleBaseURL is the Google Geocoding API endpoint.
	DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	googleTimeout = 5 * time.Second
)

// GoogleClient implements Provider over the Google Maps Geocoding API.
type GoogleClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	region     string
	language   string
}

// GoogleOption customizes a GoogleClient.
type GoogleOption func(*GoogleClient)

// WithBaseURL points the client at a different endpoint, used in tests.
func WithBaseURL(u string) GoogleOption {
	return func(c *GoogleClient) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) GoogleOption {
	return func(c *GoogleClient) { c.httpClient = h }
}

// NewGoogleClient creates a client. It returns nil when apiKey is empty so the
// caller can run without geocoding.
func NewGoogleClient(apiKey, region, language string, opts ...GoogleOption) *GoogleClient {
	if apiKey == "" {
		return nil
	}

	c := &GoogleClient{
		apiKey:     apiKey,
		baseURL:    DefaultGoogleBaseURL,
		region:     region,
		language:   language,
		httpClient: &http.Client{Timeout: googleTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// SearchByText geocodes a free-form address.
func (c *GoogleClient) SearchByText(ctx context.Context, text string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("address", text)
	return c.do(ctx, params)
}

// ReverseGeocode looks up addresses at a point.
func (c *GoogleClient) ReverseGeocode(ctx context.Context, point geo.LatLng) ([]Candidate, error) {
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(point.Lat, 'f', 7, 64)+","+strconv.FormatFloat(point.Lng, 'f', 7, 64))
	return c.do(ctx, params)
}

func (c *GoogleClient) do(ctx context.Context, params url.Values) ([]Candidate, error) {
	params.Set("key", c.apiKey)
	if c.region != "" {
		params.Set("region", c.region)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch geoResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []Candidate{}, nil
	default:
		if geoResp.ErrorMessage != "" {
			return nil, fmt.Errorf("geocoding failed: status=%s: %s", geoResp.Status, geoResp.ErrorMessage)
		}
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}

	out := make([]Candidate, 0, len(geoResp.Results))
	for _, r := range geoResp.Results {
		cand := Candidate{
			FormattedAddress: r.FormattedAddress,
			Location:         geo.LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		}
		for _, comp := range r.AddressComponents {
			cand.Components = append(cand.Components, Component{
				LongName:  comp.LongName,
				ShortName: comp.ShortName,
				Types:     comp.Types,
			})
		}
		out = append(out, cand)
	}
	return out, nil
}
