package openmeteo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/weather"
)

const dailyJSON = `{
	"daily": {
		"time": ["2026-08-21", "2026-08-22", "2026-08-23"],
		"weather_code": [0, 61, null],
		"temperature_2m_max": [88.3, 79.1, 75.0],
		"temperature_2m_min": [70.2, 66.8, null],
		"precipitation_sum": [0.0, 0.42, 0.1],
		"precipitation_probability_max": [5, 80, null],
		"wind_speed_10m_max": [12.4, 18.9, 10.0],
		"sunrise": ["2026-08-21T06:07", "2026-08-22T06:08", "2026-08-23T06:09"],
		"sunset": ["2026-08-21T19:48", "2026-08-22T19:46", "2026-08-23T19:45"],
		"uv_index_max": [8.1, 4.2, 3.0]
	}
}`

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})

	assert.Equal(t, defaultBaseURL, client.config.BaseURL)
	assert.Equal(t, defaultTimeout, client.config.Timeout)
	assert.NotNil(t, client.httpClient)
}

func TestClient_Outlook_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "41.8858", q.Get("latitude"))
		assert.Equal(t, "-87.6181", q.Get("longitude"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
		assert.Equal(t, "mph", q.Get("wind_speed_unit"))
		assert.Equal(t, "inch", q.Get("precipitation_unit"))
		assert.Equal(t, dailyFields, q.Get("daily"))
		assert.Empty(t, q.Get("current"))

		fmt.Fprint(w, dailyJSON)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	days, err := client.Outlook(context.Background(), weather.Location{Lat: 41.8858, Lon: -87.6181}, 2, domain.UnitsImperial)

	require.NoError(t, err)
	require.Len(t, days, 2, "response is truncated to the requested day count")

	first := days[0]
	assert.Equal(t, "2026-08-21", first.Date)
	require.NotNil(t, first.Code)
	assert.Equal(t, 0, *first.Code)
	require.NotNil(t, first.High)
	assert.InDelta(t, 88.3, *first.High, 0.001)
	require.NotNil(t, first.Low)
	assert.InDelta(t, 70.2, *first.Low, 0.001)
	assert.Equal(t, 0.0, first.PrecipSum)
	assert.Equal(t, "2026-08-21T06:07", first.Sunrise)
	assert.Equal(t, "2026-08-21T19:48", first.Sunset)
	require.NotNil(t, first.UVIndexMax)
	assert.InDelta(t, 8.1, *first.UVIndexMax, 0.001)
}

func TestClient_Outlook_NullValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, dailyJSON)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	days, err := client.Outlook(context.Background(), weather.Location{}, 3, domain.UnitsImperial)

	require.NoError(t, err)
	require.Len(t, days, 3)

	third := days[2]
	assert.Nil(t, third.Code)
	assert.Nil(t, third.Low)
	assert.Nil(t, third.PrecipChance)
	require.NotNil(t, third.High)
	assert.InDelta(t, 75.0, *third.High, 0.001)
}

func TestClient_Outlook_MetricUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "celsius", q.Get("temperature_unit"))
		assert.Equal(t, "kmh", q.Get("wind_speed_unit"))
		assert.Equal(t, "mm", q.Get("precipitation_unit"))

		fmt.Fprint(w, `{"daily": {"time": []}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	days, err := client.Outlook(context.Background(), weather.Location{}, 7, domain.UnitsMetric)

	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestClient_Current_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, currentFields, q.Get("current"))
		assert.Equal(t, dailyFields, q.Get("daily"))

		fmt.Fprint(w, `{
			"current": {
				"temperature_2m": 84.6,
				"apparent_temperature": 89.2,
				"relative_humidity_2m": 62,
				"wind_speed_10m": 9.8,
				"wind_gusts_10m": 17.3,
				"precipitation": 0.0,
				"weather_code": 2
			},
			"daily": {
				"time": ["2026-08-21"],
				"weather_code": [3],
				"temperature_2m_max": [88.3],
				"temperature_2m_min": [70.2],
				"precipitation_sum": [0.0],
				"precipitation_probability_max": [5],
				"wind_speed_10m_max": [12.4],
				"sunrise": ["2026-08-21T06:07"],
				"sunset": ["2026-08-21T19:48"],
				"uv_index_max": [8.1]
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	snap, err := client.Current(context.Background(), weather.Location{Lat: 41.88, Lon: -87.62}, domain.UnitsImperial)

	require.NoError(t, err)
	require.NotNil(t, snap.Current.Temp)
	assert.InDelta(t, 84.6, *snap.Current.Temp, 0.001)
	require.NotNil(t, snap.Current.FeelsLike)
	assert.InDelta(t, 89.2, *snap.Current.FeelsLike, 0.001)
	require.NotNil(t, snap.Current.Code)
	assert.Equal(t, 2, *snap.Current.Code)
	assert.Equal(t, 0.0, snap.Current.Precip)

	assert.Equal(t, "2026-08-21", snap.Today.Date)
	require.NotNil(t, snap.Today.Code)
	assert.Equal(t, 3, *snap.Today.Code)
}

func TestClient_Current_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	snap, err := client.Current(context.Background(), weather.Location{}, domain.UnitsImperial)

	require.NoError(t, err)
	assert.Nil(t, snap.Current.Temp)
	assert.Empty(t, snap.Today.Date)
}

func TestClient_Outlook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Outlook(context.Background(), weather.Location{}, 2, domain.UnitsImperial)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_Outlook_SetsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weathervane-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"daily": {"time": []}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, UserAgent: "weathervane-test"})
	_, err := client.Outlook(context.Background(), weather.Location{}, 2, domain.UnitsImperial)

	require.NoError(t, err)
}
