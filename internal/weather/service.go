package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/pkg/ctxlog"
)

// Service errors.
var (
	ErrNoZip       = errors.New("no zip code provided or saved")
	ErrInvalidZip  = errors.New("zip code must be 5 digits")
	ErrUnavailable = errors.New("weather service is unavailable right now")
)

// ZipSource returns a user's saved ZIP code, empty when none is saved.
type ZipSource interface {
	SavedZip(ctx context.Context, userID int64) (string, error)
}

// Service assembles current-conditions and moon-phase reports for users.
type Service struct {
	zips        ZipSource
	geocoder    geo.Geocoder
	provider    CurrentProvider
	defaultZone *time.Location
	clock       clockwork.Clock
}

// NewService creates a new weather service. defaultZone is the zone moon
// reports are dated in.
func NewService(zips ZipSource, geocoder geo.Geocoder, provider CurrentProvider, defaultZone *time.Location) *Service {
	return &Service{
		zips:        zips,
		geocoder:    geocoder,
		provider:    provider,
		defaultZone: defaultZone,
		clock:       clockwork.NewRealClock(),
	}
}

// Report is a current-conditions report for a resolved place.
type Report struct {
	City    string            `json:"city"`
	State   string            `json:"state"`
	Zip     string            `json:"zip"`
	Units   domain.Units      `json:"units"`
	Icon    string            `json:"icon"`
	Summary string            `json:"summary"`
	Current CurrentConditions `json:"current"`
	Today   OutlookDay        `json:"today"`
	Sunrise string            `json:"sunrise,omitempty"`
	Sunset  string            `json:"sunset,omitempty"`
}

// CurrentByUser builds a report for the given ZIP, falling back to the
// user's saved location when zip is empty.
func (s *Service) CurrentByUser(ctx context.Context, userID int64, zip string, units domain.Units) (Report, error) {
	zip = domain.NormalizeZip(zip)
	if zip == "" {
		saved, err := s.zips.SavedZip(ctx, userID)
		if err != nil {
			return Report{}, fmt.Errorf("load saved zip: %w", err)
		}
		zip = saved
	}
	if zip == "" {
		return Report{}, ErrNoZip
	}
	if !domain.ValidZip(zip) {
		return Report{}, ErrInvalidZip
	}

	place, err := s.geocoder.Lookup(ctx, zip)
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			return Report{}, err
		}
		ctxlog.FromContext(ctx).Error("zip lookup failed", "zip", zip, "error", err)
		return Report{}, ErrUnavailable
	}

	snap, err := s.provider.Current(ctx, Location{Lat: place.Lat, Lon: place.Lon}, units)
	if err != nil {
		ctxlog.FromContext(ctx).Error("current conditions fetch failed", "zip", zip, "error", err)
		return Report{}, ErrUnavailable
	}

	// Prefer today's code for the headline icon, like the forecast views.
	code := snap.Today.Code
	if code == nil {
		code = snap.Current.Code
	}
	icon, desc := CodeIconDesc(code)

	report := Report{
		City:    place.City,
		State:   place.State,
		Zip:     zip,
		Units:   units,
		Icon:    icon,
		Summary: desc,
		Current: snap.Current,
		Today:   snap.Today,
	}
	if snap.Today.Sunrise != "" {
		report.Sunrise = FormatClockTime(snap.Today.Sunrise)
	}
	if snap.Today.Sunset != "" {
		report.Sunset = FormatClockTime(snap.Today.Sunset)
	}
	return report, nil
}

// MoonReport is today's moon phase, with the resolved place when a ZIP
// was available.
type MoonReport struct {
	City     string  `json:"city,omitempty"`
	State    string  `json:"state,omitempty"`
	Zip      string  `json:"zip,omitempty"`
	Phase    string  `json:"phase"`
	Icon     string  `json:"icon"`
	AgeDays  float64 `json:"age_days"`
	Date     string  `json:"date"`
	Timezone string  `json:"timezone"`
}

// MoonByUser builds a moon-phase report for today in the default zone.
// The ZIP only decorates the report with a place name: an empty zip falls
// back to the user's saved location, and a missing or unresolvable
// location still yields the phase. An explicitly provided ZIP that is not
// 5 digits is rejected.
func (s *Service) MoonByUser(ctx context.Context, userID int64, zip string) (MoonReport, error) {
	explicit := zip != ""
	zip = domain.NormalizeZip(zip)
	if explicit && !domain.ValidZip(zip) {
		return MoonReport{}, ErrInvalidZip
	}
	if zip == "" {
		saved, err := s.zips.SavedZip(ctx, userID)
		if err != nil {
			ctxlog.FromContext(ctx).Error("load saved zip", "error", err)
		} else {
			zip = saved
		}
	}

	now := s.clock.Now().In(s.defaultZone)
	phase := MoonPhaseOn(now)
	report := MoonReport{
		Phase:    phase.Name,
		Icon:     phase.Icon,
		AgeDays:  phase.AgeDays,
		Date:     now.Format("2006-01-02"),
		Timezone: s.defaultZone.String(),
	}

	if domain.ValidZip(zip) {
		place, err := s.geocoder.Lookup(ctx, zip)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("zip lookup failed, reporting phase without place", "zip", zip, "error", err)
		} else {
			report.City = place.City
			report.State = place.State
			report.Zip = zip
		}
	}
	return report, nil
}
