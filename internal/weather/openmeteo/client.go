// Package openmeteo fetches forecasts from the Open-Meteo API.
package openmeteo

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

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/pkg/metrics"
	"github.com/weathervane/weathervane/internal/weather"
)

const (
	defaultBaseURL = "https://api.open-meteo.com"
	defaultTimeout = 15 * time.Second

	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max,wind_speed_10m_max,sunrise,sunset,uv_index_max"
	currentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_gusts_10m,precipitation,weather_code"
)

// Config holds Open-Meteo client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client implements weather.ForecastProvider and weather.CurrentProvider
// against the Open-Meteo forecast API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an Open-Meteo client.
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

// Outlook returns up to days of daily forecast data for a location.
func (c *Client) Outlook(ctx context.Context, loc weather.Location, days int, units domain.Units) ([]weather.OutlookDay, error) {
	params := baseParams(loc, units)
	params.Set("daily", dailyFields)

	data, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	return buildOutlook(data.Daily, days), nil
}

// Current returns current conditions together with today's aggregates.
func (c *Client) Current(ctx context.Context, loc weather.Location, units domain.Units) (weather.Snapshot, error) {
	params := baseParams(loc, units)
	params.Set("daily", dailyFields)
	params.Set("current", currentFields)

	data, err := c.fetch(ctx, params)
	if err != nil {
		return weather.Snapshot{}, err
	}

	snap := weather.Snapshot{}
	if cur := data.Current; cur != nil {
		snap.Current = weather.CurrentConditions{
			Temp:      cur.Temp,
			FeelsLike: cur.FeelsLike,
			Humidity:  cur.Humidity,
			WindSpeed: cur.WindSpeed,
			WindGusts: cur.WindGusts,
			Code:      cur.Code,
		}
		if cur.Precip != nil {
			snap.Current.Precip = *cur.Precip
		}
	}
	if today := buildOutlook(data.Daily, 1); len(today) > 0 {
		snap.Today = today[0]
	}
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*response, error) {
	u := fmt.Sprintf("%s/v1/forecast?%s", strings.TrimRight(c.config.BaseURL, "/"), params.Encode())

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
		metrics.RecordProviderRequest("openmeteo", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest("openmeteo", strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &r, nil
}

func baseParams(loc weather.Location, units domain.Units) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	params.Set("timezone", "auto")
	if units == domain.UnitsMetric {
		params.Set("temperature_unit", "celsius")
		params.Set("wind_speed_unit", "kmh")
		params.Set("precipitation_unit", "mm")
	} else {
		params.Set("temperature_unit", "fahrenheit")
		params.Set("wind_speed_unit", "mph")
		params.Set("precipitation_unit", "inch")
	}
	return params
}

func buildOutlook(daily *dailyBlock, days int) []weather.OutlookDay {
	if daily == nil {
		return nil
	}
	dates := daily.Time
	if len(dates) > days {
		dates = dates[:days]
	}

	out := make([]weather.OutlookDay, 0, len(dates))
	for i, date := range dates {
		day := weather.OutlookDay{
			Date:         date,
			Code:         intAt(daily.WeatherCode, i),
			High:         floatAt(daily.TempMax, i),
			Low:          floatAt(daily.TempMin, i),
			PrecipChance: floatAt(daily.PrecipProbMax, i),
			MaxWind:      floatAt(daily.WindSpeedMax, i),
			UVIndexMax:   floatAt(daily.UVIndexMax, i),
			Sunrise:      stringAt(daily.Sunrise, i),
			Sunset:       stringAt(daily.Sunset, i),
		}
		if sum := floatAt(daily.PrecipSum, i); sum != nil {
			day.PrecipSum = *sum
		}
		out = append(out, day)
	}
	return out
}

func floatAt(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

func intAt(xs []*int, i int) *int {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}

func stringAt(xs []string, i int) string {
	if i >= len(xs) {
		return ""
	}
	return xs[i]
}

// Open-Meteo response types. Array members can be null for individual
// days, so numeric series decode as pointer slices.

type response struct {
	Daily   *dailyBlock   `json:"daily"`
	Current *currentBlock `json:"current"`
}

type dailyBlock struct {
	Time          []string   `json:"time"`
	WeatherCode   []*int     `json:"weather_code"`
	TempMax       []*float64 `json:"temperature_2m_max"`
	TempMin       []*float64 `json:"temperature_2m_min"`
	PrecipSum     []*float64 `json:"precipitation_sum"`
	PrecipProbMax []*float64 `json:"precipitation_probability_max"`
	WindSpeedMax  []*float64 `json:"wind_speed_10m_max"`
	Sunrise       []string   `json:"sunrise"`
	Sunset        []string   `json:"sunset"`
	UVIndexMax    []*float64 `json:"uv_index_max"`
}

type currentBlock struct {
	Temp      *float64 `json:"temperature_2m"`
	FeelsLike *float64 `json:"apparent_temperature"`
	Humidity  *float64 `json:"relative_humidity_2m"`
	WindSpeed *float64 `json:"wind_speed_10m"`
	WindGusts *float64 `json:"wind_gusts_10m"`
	Precip    *float64 `json:"precipitation"`
	Code      *int     `json:"weather_code"`
}
