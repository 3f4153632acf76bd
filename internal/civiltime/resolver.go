// Package civiltime resolves wall-clock times of day in named timezones to
// absolute instants, honoring DST transitions.
package civiltime

import (
	"errors"
	"fmt"
	"time"

	"github.com/weathervane/weathervane/internal/domain"
)

var ErrEmptyZone = errors.New("timezone name is empty")

// LoadZone resolves an IANA zone name against the host timezone database.
// An unknown or empty name is a configuration error for the caller to
// surface; callers apply their configured default before calling.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, ErrEmptyZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// NextOccurrence returns the first instant at hour:minute in loc strictly
// after now, stepping one day for daily and seven days for weekly cadence
// when today's slot has already passed. The step is calendar arithmetic,
// so the local rendering stays hour:minute even when a DST transition
// changes the UTC offset between now and the occurrence.
func NextOccurrence(now time.Time, hour, minute int, cadence domain.Cadence, loc *time.Location) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(local) {
		step := 1
		if cadence == domain.CadenceWeekly {
			step = 7
		}
		candidate = candidate.AddDate(0, 0, step)
	}
	return candidate
}
