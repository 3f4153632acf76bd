// Package weather defines forecast, current-conditions and alert types
// along with the provider interfaces that fetch them.
package weather

import (
	"context"

	"github.com/weathervane/weathervane/internal/domain"
)

// Location is a geographic point.
type Location struct {
	Lat float64
	Lon float64
}

// OutlookDay is one day of forecast data. Optional values are pointers
// because providers may return nulls for individual days.
type OutlookDay struct {
	Date         string   `json:"date"` // local calendar date, YYYY-MM-DD
	Code         *int     `json:"code,omitempty"`
	High         *float64 `json:"high,omitempty"`
	Low          *float64 `json:"low,omitempty"`
	PrecipSum    float64  `json:"precip_sum"`
	PrecipChance *float64 `json:"precip_chance,omitempty"`
	MaxWind      *float64 `json:"max_wind,omitempty"`
	Sunrise      string   `json:"sunrise,omitempty"` // local ISO timestamp
	Sunset       string   `json:"sunset,omitempty"`
	UVIndexMax   *float64 `json:"uv_index_max,omitempty"`
}

// CurrentConditions is a point-in-time observation snapshot.
type CurrentConditions struct {
	Temp      *float64 `json:"temp,omitempty"`
	FeelsLike *float64 `json:"feels_like,omitempty"`
	Humidity  *float64 `json:"humidity,omitempty"`
	WindSpeed *float64 `json:"wind_speed,omitempty"`
	WindGusts *float64 `json:"wind_gusts,omitempty"`
	Precip    float64  `json:"precip"`
	Code      *int     `json:"code,omitempty"`
}

// Snapshot pairs current conditions with today's daily aggregates.
type Snapshot struct {
	Current CurrentConditions `json:"current"`
	Today   OutlookDay        `json:"today"`
}

// Alert is an active weather alert for a location. String fields carry
// the provider's values verbatim except severity, certainty and urgency,
// which are lowercased.
type Alert struct {
	ID          string
	Event       string
	Headline    string
	Severity    string
	Certainty   string
	Urgency     string
	Areas       string
	Starts      string
	Ends        string
	Instruction string
	Description string
	Sender      string
	Link        string
}

// ForecastProvider returns a multi-day outlook for a location.
type ForecastProvider interface {
	Outlook(ctx context.Context, loc Location, days int, units domain.Units) ([]OutlookDay, error)
}

// CurrentProvider returns current conditions plus today's outlook.
type CurrentProvider interface {
	Current(ctx context.Context, loc Location, units domain.Units) (Snapshot, error)
}

// AlertProvider returns active alerts for a location.
type AlertProvider interface {
	ActiveAlerts(ctx context.Context, loc Location) ([]Alert, error)
}
