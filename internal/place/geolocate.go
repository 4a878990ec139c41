package place

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// geoTimeout bounds a geolocation lookup; resolution must never stall a
// ranking pass.
const geoTimeout = 5 * time.Second

// GeoClient resolves an approximate location for an IP address using an
// ip-api.com-compatible endpoint. Lookups are best-effort: callers treat
// any failure as "location unknown".
type GeoClient struct {
	baseURL string
	client  *http.Client
}

const geoDefaultURL = "http://ip-api.com/json"

// NewGeoClient constructs a GeoClient against the production endpoint.
func NewGeoClient() *GeoClient {
	return &GeoClient{baseURL: geoDefaultURL, client: &http.Client{Timeout: geoTimeout}}
}

// NewGeoClientWithURL constructs a GeoClient pointing at a custom base URL (for tests).
func NewGeoClientWithURL(baseURL string) *GeoClient {
	return &GeoClient{baseURL: baseURL, client: &http.Client{Timeout: geoTimeout}}
}

type geoResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Locate resolves the given IP to a Location.
func (c *GeoClient) Locate(ctx context.Context, ip string) (*Location, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(ip) + "?fields=status,message,lat,lon"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating geolocation request for %s: %w", ip, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocating %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocating %s: status %d", ip, resp.StatusCode)
	}

	var raw geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding geolocation response for %s: %w", ip, err)
	}

	if raw.Status != "success" {
		return nil, fmt.Errorf("geolocating %s: %s", ip, raw.Message)
	}

	return &Location{Latitude: raw.Lat, Longitude: raw.Lon}, nil
}
