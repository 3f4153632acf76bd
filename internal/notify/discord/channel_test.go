package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/notify"
	"github.com/weathervane/weathervane/internal/weather"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func testForecastMessage() notify.ForecastMessage {
	return notify.ForecastMessage{
		Cadence:  domain.CadenceDaily,
		City:     "Chicago",
		State:    "IL",
		Zip:      "60601",
		Units:    domain.UnitsImperial,
		Timezone: "America/Chicago",
		Days: []weather.OutlookDay{
			{
				Date:      "2026-03-09",
				Code:      intPtr(3),
				High:      floatPtr(54.2),
				Low:       floatPtr(38.9),
				PrecipSum: 0.12,
				Sunrise:   "2026-03-09T07:07",
				Sunset:    "2026-03-09T18:52",
			},
		},
	}
}

func TestNewChannel_RequiresToken(t *testing.T) {
	_, err := NewChannel(Config{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token is required")
}

func TestNewChannel_Defaults(t *testing.T) {
	channel, err := NewChannel(Config{Token: "bot-token"})

	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, channel.config.APIURL)
	assert.Equal(t, defaultTimeout, channel.config.Timeout)
	assert.Equal(t, defaultRate, channel.config.RequestsPerSecond)
}

func TestChannel_Name(t *testing.T) {
	channel, err := NewChannel(Config{Token: "bot-token"})

	require.NoError(t, err)
	assert.Equal(t, "discord", channel.Name())
}

func TestChannel_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch r.URL.Path {
		case "/users/@me/channels":
			var req dmChannelRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "42", req.RecipientID)
			_, _ = w.Write([]byte(`{"id": "dm-chan-1"}`))

		case "/channels/dm-chan-1/messages":
			var payload messagePayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Len(t, payload.Embeds, 1)
			emb := payload.Embeds[0]
			assert.Contains(t, emb.Title, "Daily Outlook")
			assert.Contains(t, emb.Title, "Chicago, IL 60601")
			require.Len(t, emb.Fields, 1)
			assert.Equal(t, "2026-03-09", emb.Fields[0].Name)
			assert.Contains(t, emb.Fields[0].Value, "54° / 39°")
			require.NotNil(t, emb.Footer)
			assert.Equal(t, "America/Chicago time schedule", emb.Footer.Text)
			w.WriteHeader(http.StatusOK)

		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Send(context.Background(), 42, testForecastMessage())

	require.NoError(t, err)
}

func TestChannel_Send_CachesDMChannel(t *testing.T) {
	opened := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/@me/channels" {
			opened++
			_, _ = w.Write([]byte(`{"id": "dm-chan-1"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL, RequestsPerSecond: 1000})
	require.NoError(t, err)

	require.NoError(t, channel.Send(context.Background(), 42, testForecastMessage()))
	require.NoError(t, channel.Send(context.Background(), 42, testForecastMessage()))

	assert.Equal(t, 1, opened)
}

func TestChannel_Send_AlertsEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/@me/channels" {
			_, _ = w.Write([]byte(`{"id": "dm-chan-1"}`))
			return
		}

		var payload messagePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Embeds, 1)
		emb := payload.Embeds[0]
		assert.Contains(t, emb.Title, "Weather Alerts")
		assert.Equal(t, notify.ColorAlert, emb.Color)
		require.Len(t, emb.Fields, 1)
		assert.Equal(t, "Winter Storm Warning (Warning)", emb.Fields[0].Name)
		assert.Contains(t, emb.Fields[0].Value, "Heavy snow expected")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL, RequestsPerSecond: 1000})
	require.NoError(t, err)

	msg := notify.AlertsMessage{
		City:  "Chicago",
		State: "IL",
		Zip:   "60601",
		Alerts: []weather.Alert{
			{
				ID:       "alert-1",
				Event:    "Winter Storm Warning",
				Severity: "severe",
				Headline: "Heavy snow expected",
				Sender:   "NWS Chicago",
			},
		},
	}

	err = channel.Send(context.Background(), 42, msg)

	require.NoError(t, err)
}

func TestChannel_Send_UserBlocksDMs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/@me/channels" {
			_, _ = w.Write([]byte(`{"id": "dm-chan-1"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Send(context.Background(), 42, testForecastMessage())

	var permErr *PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, http.StatusForbidden, permErr.Code)
	assert.False(t, permErr.IsRetryable())
}

func TestChannel_Send_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Send(context.Background(), 42, testForecastMessage())

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, http.StatusTooManyRequests, retryErr.Code)
	assert.True(t, retryErr.IsRetryable())
}

func TestChannel_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Send(context.Background(), 42, testForecastMessage())

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Contains(t, retryErr.Message, "upstream exploded")
}

func TestChannel_Ready_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/@me", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "bot-user", "username": "weathervane"}`))
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bot-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Ready(context.Background())

	require.NoError(t, err)
}

func TestChannel_Ready_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	channel, err := NewChannel(Config{Token: "bad-token", APIURL: server.URL})
	require.NoError(t, err)

	err = channel.Ready(context.Background())

	var permErr *PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.Contains(t, permErr.Message, "invalid bot token")
}

func TestChannel_ConfiguredTimeout(t *testing.T) {
	channel, err := NewChannel(Config{Token: "bot-token", Timeout: 3 * time.Second})

	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, channel.httpClient.Timeout)
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "long token keeps edges",
			token:    "MTAxMjM0NTY3ODkwLmFiY2RlZg",
			expected: "MTAx...RlZg",
		},
		{
			name:     "short token fully masked",
			token:    "abc",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskToken(tt.token))
		})
	}
}
