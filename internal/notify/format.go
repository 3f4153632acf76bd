package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/weather"
)

// Embed accent colors.
const (
	ColorNeutral = 0x5865f2 // blurple
	ColorAlert   = 0xe67e22 // orange
)

const maxAlertBodyLen = 400

var titleCaser = cases.Title(language.English)

// SeverityTitle renders a reported severity for display.
func SeverityTitle(severity string) string {
	return titleCaser.String(severity)
}

// DayLine renders one outlook day as a single display line.
func DayLine(day weather.OutlookDay, units domain.Units) string {
	icon, desc := weather.CodeIconDesc(day.Code)

	windUnit, precipUnit := "mph", "in"
	if units == domain.UnitsMetric {
		windUnit, precipUnit = "km/h", "mm"
	}

	parts := []string{}
	if day.High != nil && day.Low != nil {
		parts = append(parts, fmt.Sprintf("**%.0f° / %.0f°**", *day.High, *day.Low))
	}
	if day.MaxWind != nil {
		parts = append(parts, fmt.Sprintf("\U0001f4a8 %.0f %s", *day.MaxWind, windUnit))
	}
	if day.PrecipChance != nil {
		parts = append(parts, fmt.Sprintf("☂ %d%%", int(*day.PrecipChance)))
	}
	parts = append(parts, fmt.Sprintf("\U0001f4cf %.2f %s", day.PrecipSum, precipUnit))

	return fmt.Sprintf("%s %s — %s", icon, desc, strings.Join(parts, " - "))
}

// DayExtras renders the sunrise, sunset and UV line for a daily outlook.
// Returns an empty string when none of them are available.
func DayExtras(day weather.OutlookDay) string {
	extras := []string{}
	if day.Sunrise != "" {
		extras = append(extras, "\U0001f305 "+weather.FormatClockTime(day.Sunrise))
	}
	if day.Sunset != "" {
		extras = append(extras, "\U0001f307 "+weather.FormatClockTime(day.Sunset))
	}
	if day.UVIndexMax != nil {
		extras = append(extras, fmt.Sprintf("\U0001f506 UV %.1f", *day.UVIndexMax))
	}
	return strings.Join(extras, " - ")
}

// AlertTitle renders the field title for one alert.
func AlertTitle(a weather.Alert) string {
	event := a.Event
	if event == "" {
		event = "Alert"
	}
	return fmt.Sprintf("%s (%s)", event, SeverityTitle(a.Severity))
}

// AlertBody renders the field body for one alert: the headline or
// description, then timing and source lines.
func AlertBody(a weather.Alert) string {
	body := a.Headline
	if body == "" {
		body = a.Description
	}
	if body == "" {
		body = "Details unavailable"
	}
	body = TruncateBody(strings.TrimSpace(body))

	var when strings.Builder
	if a.Starts != "" {
		when.WriteString("Starts: " + a.Starts + "\n")
	}
	if a.Ends != "" {
		when.WriteString("Ends: " + a.Ends + "\n")
	}

	sender := a.Sender
	if sender == "" {
		sender = "NWS"
	}

	tail := "\n" + when.String() + "Source: " + sender
	if a.Link != "" {
		tail += "\nMore: " + a.Link
	}
	return body + tail
}

// TruncateBody caps alert text at 400 characters with an ellipsis.
func TruncateBody(s string) string {
	runes := []rune(s)
	if len(runes) <= maxAlertBodyLen {
		return s
	}
	return string(runes[:maxAlertBodyLen-3]) + "…"
}

// TempColor maps a temperature to an embed accent color. Thresholds are
// in Fahrenheit; metric values are converted first.
func TempColor(temp *float64, units domain.Units) int {
	if temp == nil {
		return ColorNeutral
	}
	t := *temp
	if units == domain.UnitsMetric {
		t = t*9/5 + 32
	}
	switch {
	case t <= 32:
		return rgb(80, 150, 255)
	case t <= 45:
		return rgb(100, 180, 255)
	case t <= 60:
		return rgb(120, 200, 200)
	case t <= 75:
		return rgb(255, 205, 120)
	case t <= 85:
		return rgb(255, 160, 80)
	case t <= 95:
		return rgb(255, 120, 80)
	default:
		return rgb(230, 60, 60)
	}
}

// ForecastColor picks the accent color from the first day's high.
func ForecastColor(m ForecastMessage) int {
	if len(m.Days) > 0 && m.Days[0].High != nil {
		return TempColor(m.Days[0].High, m.Units)
	}
	fallback := 70.0
	return TempColor(&fallback, domain.UnitsImperial)
}

func rgb(r, g, b int) int {
	return r<<16 | g<<8 | b
}
