package schedule

import "errors"

// Repository errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Validation errors.
var (
	ErrInvalidCadence  = errors.New("cadence must be daily or weekly")
	ErrInvalidTime     = errors.New("time of day is out of range")
	ErrInvalidUnits    = errors.New("units must be imperial or metric")
	ErrInvalidZip      = errors.New("zip code must be 5 digits")
	ErrNoZip           = errors.New("no zip code provided or saved")
	ErrInvalidTimezone = errors.New("unknown timezone")
)
