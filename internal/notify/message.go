// Package notify renders and delivers outbound notifications.
package notify

import (
	"fmt"
	"time"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/weather"
)

// Message kinds, used to select templates and embed layouts.
const (
	KindForecastDaily  = "forecast_daily"
	KindForecastWeekly = "forecast_weekly"
	KindAlerts         = "alerts"
)

// Message is a renderable notification payload.
type Message interface {
	Kind() string
	Title() string
}

// ForecastMessage is a daily or weekly outlook for a subscription.
type ForecastMessage struct {
	Cadence     domain.Cadence
	City        string
	State       string
	Zip         string
	Units       domain.Units
	Timezone    string
	Days        []weather.OutlookDay
	GeneratedAt time.Time
}

// NewForecastMessage builds an outlook message for a subscription,
// stamped with the caller's clock reading.
func NewForecastMessage(sub domain.Subscription, place geo.Place, days []weather.OutlookDay, now time.Time) ForecastMessage {
	return ForecastMessage{
		Cadence:     sub.Cadence,
		City:        place.City,
		State:       place.State,
		Zip:         sub.Zip,
		Units:       sub.Units,
		Timezone:    sub.Timezone,
		Days:        days,
		GeneratedAt: now,
	}
}

func (m ForecastMessage) Kind() string {
	if m.Cadence == domain.CadenceWeekly {
		return KindForecastWeekly
	}
	return KindForecastDaily
}

func (m ForecastMessage) Title() string {
	if m.Cadence == domain.CadenceWeekly {
		return fmt.Sprintf("\U0001f5d3️ Weekly Outlook (%d days) — %s, %s %s", len(m.Days), m.City, m.State, m.Zip)
	}
	return fmt.Sprintf("\U0001f324️ Daily Outlook — %s, %s %s", m.City, m.State, m.Zip)
}

// Footer describes the schedule the message was produced on.
func (m ForecastMessage) Footer() string {
	return m.Timezone + " time schedule"
}

// AlertsMessage is a batch of fresh weather alerts for one location.
type AlertsMessage struct {
	City        string
	State       string
	Zip         string
	Alerts      []weather.Alert
	GeneratedAt time.Time
}

// NewAlertsMessage builds an alerts message for a resolved place,
// stamped with the caller's clock reading.
func NewAlertsMessage(place geo.Place, zip string, alerts []weather.Alert, now time.Time) AlertsMessage {
	return AlertsMessage{
		City:        place.City,
		State:       place.State,
		Zip:         zip,
		Alerts:      alerts,
		GeneratedAt: now,
	}
}

func (m AlertsMessage) Kind() string { return KindAlerts }

func (m AlertsMessage) Title() string {
	return fmt.Sprintf("⚠️ Weather Alerts — %s, %s %s", m.City, m.State, m.Zip)
}
