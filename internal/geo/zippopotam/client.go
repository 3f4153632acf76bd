// Package zippopotam resolves US ZIP codes using the Zippopotam.us API.
package zippopotam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.zippopotam.us"
	defaultTimeout = 15 * time.Second
)

// Config holds Zippopotam.us client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client implements geo.Geocoder against the Zippopotam.us API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a Zippopotam.us geocoding client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Lookup resolves a US ZIP code to its place name and coordinates.
func (c *Client) Lookup(ctx context.Context, zip string) (geo.Place, error) {
	u := fmt.Sprintf("%s/us/%s", strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(zip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Place{}, fmt.Errorf("create request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest("zippopotam", "error", time.Since(start).Seconds())
		return geo.Place{}, fmt.Errorf("zippopotam request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest("zippopotam", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode == http.StatusNotFound {
		return geo.Place{}, geo.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.Place{}, fmt.Errorf("zippopotam API error: status %d: %s", resp.StatusCode, body)
	}

	var zr response
	if err := json.NewDecoder(resp.Body).Decode(&zr); err != nil {
		return geo.Place{}, fmt.Errorf("decode response: %w", err)
	}
	if len(zr.Places) == 0 {
		return geo.Place{}, geo.ErrNotFound
	}

	p := zr.Places[0]
	lat, err := strconv.ParseFloat(p.Latitude, 64)
	if err != nil {
		return geo.Place{}, fmt.Errorf("parse latitude %q: %w", p.Latitude, err)
	}
	lon, err := strconv.ParseFloat(p.Longitude, 64)
	if err != nil {
		return geo.Place{}, fmt.Errorf("parse longitude %q: %w", p.Longitude, err)
	}

	return geo.Place{
		City:  p.PlaceName,
		State: p.StateAbbr,
		Lat:   lat,
		Lon:   lon,
	}, nil
}

// Zippopotam.us API response types. Coordinates arrive as strings.

type response struct {
	Places []place `json:"places"`
}

type place struct {
	PlaceName string `json:"place name"`
	StateAbbr string `json:"state abbreviation"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}
