package schedule

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/weathervane/weathervane/internal/civiltime"
	"github.com/weathervane/weathervane/internal/domain"
)

// ZipSource resolves a user's saved zip code. An empty result means the
// user has none saved.
type ZipSource interface {
	SavedZip(ctx context.Context, userID int64) (string, error)
}

// Service implements subscription business logic.
type Service struct {
	repo            Repository
	zips            ZipSource
	defaultTimezone string
	clock           clockwork.Clock
}

// NewService creates a new subscription service.
func NewService(repo Repository, zips ZipSource, defaultTimezone string) *Service {
	return &Service{
		repo:            repo,
		zips:            zips,
		defaultTimezone: defaultTimezone,
		clock:           clockwork.NewRealClock(),
	}
}

// CreateInput holds data for creating a subscription.
type CreateInput struct {
	Zip         string
	Cadence     domain.Cadence
	Hour        int
	Minute      int
	OutlookDays int
	Timezone    string
	Units       domain.Units
}

// Create validates input, resolves the first occurrence in the
// subscription's timezone and stores the row. An empty zip falls back
// to the user's saved location; an empty timezone falls back to the
// configured default.
func (s *Service) Create(ctx context.Context, userID int64, input CreateInput) (*domain.Subscription, error) {
	if !input.Cadence.Valid() {
		return nil, ErrInvalidCadence
	}
	if input.Hour < 0 || input.Hour > 23 || input.Minute < 0 || input.Minute > 59 {
		return nil, ErrInvalidTime
	}

	units := input.Units
	if units == "" {
		units = domain.UnitsImperial
	}
	if !units.Valid() {
		return nil, ErrInvalidUnits
	}

	zip := domain.NormalizeZip(input.Zip)
	if zip == "" {
		saved, err := s.zips.SavedZip(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("look up saved zip: %w", err)
		}
		if saved == "" {
			return nil, ErrNoZip
		}
		zip = saved
	}
	if !domain.ValidZip(zip) {
		return nil, ErrInvalidZip
	}

	tz := input.Timezone
	if tz == "" {
		tz = s.defaultTimezone
	}
	loc, err := civiltime.LoadZone(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, tz)
	}

	days := input.OutlookDays
	if days == 0 {
		days = domain.DefaultOutlookDays
	}

	sub := &domain.Subscription{
		UserID:      userID,
		Zip:         zip,
		Cadence:     input.Cadence,
		Hour:        input.Hour,
		Minute:      input.Minute,
		OutlookDays: domain.ClampOutlookDays(days),
		Timezone:    tz,
		Units:       units,
		NextRun:     civiltime.NextOccurrence(s.clock.Now(), input.Hour, input.Minute, input.Cadence, loc),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// List returns a user's subscriptions ordered by next run.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Remove deletes a subscription. Ownership is enforced: removing
// another user's subscription reports not found.
func (s *Service) Remove(ctx context.Context, userID, subID int64) error {
	return s.repo.Remove(ctx, userID, subID)
}
