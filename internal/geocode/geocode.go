// Package geocode resolves coordinate pairs to human-readable addresses.
// Resolution failures are always non-fatal: callers keep the coordinate
// string as-is.
package geocode

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Resolver is the external lookup contract. A nil or empty address with a
// nil error means the resolver had nothing better to offer.
type Resolver interface {
	ResolveAddress(ctx context.Context, lat, lng float64) (string, error)
}

// coordPattern matches a bare "lat, lng" numeric location value.
var coordPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseCoordinates reports whether s is a coordinate-only location value and
// returns the parsed pair. Such values are eligible for enrichment.
func ParseCoordinates(s string) (lat, lng float64, ok bool) {
	m := coordPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}

// Client is a reverse-geocoding client for a Nominatim-compatible endpoint.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// ResolveAddress looks up the address for a coordinate pair. Returns an
// empty string without error when the endpoint has no answer.
func (c *Client) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	var out reverseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":    strconv.FormatFloat(lng, 'f', -1, 64),
			"format": "jsonv2",
		}).
		SetResult(&out).
		Get("/reverse")
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("reverse geocode: endpoint returned %s", resp.Status())
	}
	return out.DisplayName, nil
}
