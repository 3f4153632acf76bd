//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/testutil"
)

type subscriptionJSON struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Zip         string    `json:"zip"`
	Cadence     string    `json:"cadence"`
	Hour        int       `json:"hour"`
	Minute      int       `json:"minute"`
	OutlookDays int       `json:"outlook_days"`
	Timezone    string    `json:"timezone"`
	Units       string    `json:"units"`
	NextRun     time.Time `json:"next_run"`
}

type subscriptionEnvelope struct {
	Data subscriptionJSON `json:"data"`
}

type subscriptionListEnvelope struct {
	Data []subscriptionJSON `json:"data"`
}

type prefsEnvelope struct {
	Data struct {
		UserID      int64  `json:"user_id"`
		Enabled     bool   `json:"enabled"`
		Zip         string `json:"zip"`
		MinSeverity string `json:"min_severity"`
	} `json:"data"`
}

func createSubscription(t *testing.T, userID int64, body map[string]interface{}) subscriptionJSON {
	t.Helper()

	resp, err := testClient.POST(fmt.Sprintf("/api/v1/users/%d/subscriptions", userID), body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created subscriptionEnvelope
	testutil.DecodeJSON(t, resp, &created)
	return created.Data
}

func TestSubscriptionsAPI_CreateComputesNextRun(t *testing.T) {
	cleanupSubscriptions(t, 4001)

	sub := createSubscription(t, 4001, map[string]interface{}{
		"zip":      "60601",
		"cadence":  "daily",
		"hour":     7,
		"minute":   30,
		"timezone": "America/Chicago",
	})

	assert.NotZero(t, sub.ID)
	assert.Equal(t, int64(4001), sub.UserID)
	assert.Equal(t, "60601", sub.Zip)
	assert.Equal(t, "daily", sub.Cadence)
	assert.Equal(t, 7, sub.Hour)
	assert.Equal(t, 30, sub.Minute)
	assert.Equal(t, 7, sub.OutlookDays)
	assert.Equal(t, "America/Chicago", sub.Timezone)
	assert.Equal(t, "imperial", sub.Units)
	assert.True(t, sub.NextRun.After(time.Now()), "next_run %v is not in the future", sub.NextRun)
	assert.True(t, sub.NextRun.Before(time.Now().Add(25*time.Hour)), "first daily run %v is more than a day out", sub.NextRun)
}

func TestSubscriptionsAPI_ZipFallsBackToSavedLocation(t *testing.T) {
	cleanupSubscriptions(t, 4002)
	cleanupAlertRows(t, 4002)

	resp, err := testClient.PUT("/api/v1/users/4002/location", map[string]string{"zip": "97201"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	sub := createSubscription(t, 4002, map[string]interface{}{
		"cadence": "weekly",
		"hour":    18,
		"minute":  0,
	})

	assert.Equal(t, "97201", sub.Zip)
	assert.Equal(t, "weekly", sub.Cadence)
	// The configured default timezone applies when none is given.
	assert.Equal(t, "America/Chicago", sub.Timezone)
}

func TestSubscriptionsAPI_CreateWithoutAnyZip(t *testing.T) {
	resp, err := testClient.POST("/api/v1/users/4003/subscriptions", map[string]interface{}{
		"cadence": "daily",
		"hour":    8,
		"minute":  0,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSubscriptionsAPI_CreateValidation(t *testing.T) {
	bodies := map[string]map[string]interface{}{
		"bad cadence":       {"zip": "60601", "cadence": "hourly", "hour": 8, "minute": 0},
		"hour out of range": {"zip": "60601", "cadence": "daily", "hour": 24, "minute": 0},
		"short outlook":     {"zip": "60601", "cadence": "weekly", "hour": 8, "minute": 0, "outlook_days": 2},
		"bad timezone":      {"zip": "60601", "cadence": "daily", "hour": 8, "minute": 0, "timezone": "Mars/Olympus"},
		"bad zip":           {"zip": "123", "cadence": "daily", "hour": 8, "minute": 0},
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp, err := testClient.POST("/api/v1/users/4004/subscriptions", body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestSubscriptionsAPI_ListAndDelete(t *testing.T) {
	cleanupSubscriptions(t, 4005)

	morning := createSubscription(t, 4005, map[string]interface{}{
		"zip": "60601", "cadence": "daily", "hour": 7, "minute": 0,
	})
	evening := createSubscription(t, 4005, map[string]interface{}{
		"zip": "60601", "cadence": "daily", "hour": 19, "minute": 0,
	})

	resp, err := testClient.GET("/api/v1/users/4005/subscriptions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed subscriptionListEnvelope
	testutil.DecodeJSON(t, resp, &listed)
	require.Len(t, listed.Data, 2)
	assert.False(t, listed.Data[0].NextRun.After(listed.Data[1].NextRun), "list is not ordered by next_run")

	// Another user cannot delete the subscription.
	resp, err = testClient.DELETE(fmt.Sprintf("/api/v1/users/4006/subscriptions/%d", morning.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = testClient.DELETE(fmt.Sprintf("/api/v1/users/4005/subscriptions/%d", morning.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = testClient.GET("/api/v1/users/4005/subscriptions")
	require.NoError(t, err)

	testutil.DecodeJSON(t, resp, &listed)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, evening.ID, listed.Data[0].ID)

	resp, err = testClient.DELETE(fmt.Sprintf("/api/v1/users/4005/subscriptions/%d", morning.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSubscriptionsAPI_InvalidUserID(t *testing.T) {
	resp, err := testClient.GET("/api/v1/users/abc/subscriptions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAlertPrefsAPI_DefaultsWhenNeverSet(t *testing.T) {
	resp, err := testClient.GET("/api/v1/users/4007/alert-prefs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var prefs prefsEnvelope
	testutil.DecodeJSON(t, resp, &prefs)
	assert.Equal(t, int64(4007), prefs.Data.UserID)
	assert.False(t, prefs.Data.Enabled)
	assert.Empty(t, prefs.Data.Zip)
	assert.Equal(t, "watch", prefs.Data.MinSeverity)
}

func TestAlertPrefsAPI_PutRoundTrip(t *testing.T) {
	cleanupAlertRows(t, 4008)

	resp, err := testClient.PUT("/api/v1/users/4008/alert-prefs", map[string]interface{}{
		"enabled":      true,
		"zip":          "60601",
		"min_severity": "warning",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated prefsEnvelope
	testutil.DecodeJSON(t, resp, &updated)
	assert.True(t, updated.Data.Enabled)
	assert.Equal(t, "60601", updated.Data.Zip)
	assert.Equal(t, "warning", updated.Data.MinSeverity)

	resp, err = testClient.GET("/api/v1/users/4008/alert-prefs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched prefsEnvelope
	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, updated.Data, fetched.Data)

	// Omitting the severity falls back to the configured default.
	resp, err = testClient.PUT("/api/v1/users/4008/alert-prefs", map[string]interface{}{
		"enabled": true,
		"zip":     "60601",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, "watch", fetched.Data.MinSeverity)
}

func TestAlertPrefsAPI_Validation(t *testing.T) {
	resp, err := testClient.PUT("/api/v1/users/4009/alert-prefs", map[string]interface{}{
		"enabled":      true,
		"min_severity": "apocalyptic",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = testClient.PUT("/api/v1/users/4009/alert-prefs", map[string]interface{}{
		"enabled": true,
		"zip":     "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMoonAPI_ReportsPhaseWithoutLocation(t *testing.T) {
	// 4010 has no saved location and passes no ZIP, so the report carries
	// the phase alone and never touches the geocoder.
	resp, err := testClient.GET("/api/v1/users/4010/weather/moon")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var moon struct {
		Data struct {
			City     string  `json:"city"`
			Zip      string  `json:"zip"`
			Phase    string  `json:"phase"`
			Icon     string  `json:"icon"`
			AgeDays  float64 `json:"age_days"`
			Date     string  `json:"date"`
			Timezone string  `json:"timezone"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &moon)

	assert.Empty(t, moon.Data.City)
	assert.Empty(t, moon.Data.Zip)
	assert.NotEmpty(t, moon.Data.Phase)
	assert.NotEmpty(t, moon.Data.Icon)
	assert.GreaterOrEqual(t, moon.Data.AgeDays, 0.0)
	assert.Less(t, moon.Data.AgeDays, 28.0)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, moon.Data.Date)
	assert.Equal(t, "America/Chicago", moon.Data.Timezone)
}

func TestMoonAPI_RejectsInvalidZip(t *testing.T) {
	resp, err := testClient.GET("/api/v1/users/4010/weather/moon?zip=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
