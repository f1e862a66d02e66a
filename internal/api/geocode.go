package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FallbackAddress labels a location when reverse geocoding yields nothing.
const FallbackAddress = "Current location"

const (
	defaultGeocodeURL     = "https://nominatim.openstreetmap.org"
	defaultGeocodeTimeout = 10 * time.Second
)

// Geocoder resolves coordinates to addresses using a Nominatim-compatible
// reverse endpoint.
type Geocoder struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewGeocoder builds a Geocoder for baseURL (empty uses the public
// Nominatim instance).
func NewGeocoder(baseURL string, timeout time.Duration) (*Geocoder, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		raw = defaultGeocodeURL
	}
	base, err := parseBaseURL(raw)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}
	return &Geocoder{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent + " (terminal client)",
	}, nil
}

// Reverse returns the display name for the given coordinates.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if g == nil {
		return "", fmt.Errorf("geocoder is nil")
	}
	values := url.Values{}
	values.Set("format", "json")
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("zoom", "18")
	values.Set("addressdetails", "1")

	u := *g.baseURL
	u.Path = g.baseURL.Path + "/reverse"
	u.RawQuery = values.Encode()
	op := http.MethodGet + " /reverse"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return "", statusError(op, resp)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	return strings.TrimSpace(payload.DisplayName), nil
}

// AddressFor reverse-geocodes lat/lon, never failing: any error or empty
// answer yields FallbackAddress.
func (g *Geocoder) AddressFor(ctx context.Context, lat, lon float64) string {
	name, err := g.Reverse(ctx, lat, lon)
	if err != nil || name == "" {
		return FallbackAddress
	}
	return name
}
