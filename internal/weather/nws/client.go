// Package nws fetches active alerts from the National Weather Service API.
package nws

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

	"github.com/weathervane/weathervane/internal/pkg/metrics"
	"github.com/weathervane/weathervane/internal/weather"
)

const (
	defaultBaseURL = "https://api.weather.gov"
	defaultTimeout = 12 * time.Second
)

// Config holds NWS client settings. The NWS API requires a User-Agent
// identifying the calling application.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client implements weather.AlertProvider against the NWS alerts API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an NWS alerts client.
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

// ActiveAlerts returns alerts currently in effect at a point.
func (c *Client) ActiveAlerts(ctx context.Context, loc weather.Location) ([]weather.Alert, error) {
	params := url.Values{}
	// The NWS API rejects coordinates with more than four decimal places.
	params.Set("point", fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon))
	params.Set("status", "actual")
	params.Set("message_type", "alert")

	u := fmt.Sprintf("%s/alerts/active?%s", strings.TrimRight(c.config.BaseURL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderRequest("nws", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest("nws", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	alerts := make([]weather.Alert, 0, len(r.Features))
	for _, f := range r.Features {
		p := f.Properties
		alerts = append(alerts, weather.Alert{
			ID:          firstNonEmpty(p.ID, f.ID),
			Event:       p.Event,
			Headline:    p.Headline,
			Severity:    strings.ToLower(p.Severity),
			Certainty:   strings.ToLower(p.Certainty),
			Urgency:     strings.ToLower(p.Urgency),
			Areas:       p.AreaDesc,
			Starts:      firstNonEmpty(p.Onset, p.Effective),
			Ends:        firstNonEmpty(p.Ends, p.Expires),
			Instruction: p.Instruction,
			Description: p.Description,
			Sender:      p.SenderName,
			Link:        p.URI,
		})
	}
	return alerts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NWS GeoJSON response types, reduced to the fields we read.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
}

type properties struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Severity    string `json:"severity"`
	Certainty   string `json:"certainty"`
	Urgency     string `json:"urgency"`
	AreaDesc    string `json:"areaDesc"`
	Onset       string `json:"onset"`
	Effective   string `json:"effective"`
	Ends        string `json:"ends"`
	Expires     string `json:"expires"`
	Instruction string `json:"instruction"`
	Description string `json:"description"`
	SenderName  string `json:"senderName"`
	URI         string `json:"uri"`
}
