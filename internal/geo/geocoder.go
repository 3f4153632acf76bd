// Package geo resolves US ZIP codes to named places with coordinates.
package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a ZIP code does not resolve to any place.
var ErrNotFound = errors.New("zip code not found")

// Place identifies a US location resolved from a ZIP code.
type Place struct {
	City  string
	State string
	Lat   float64
	Lon   float64
}

// Geocoder resolves a US ZIP code to a place.
type Geocoder interface {
	Lookup(ctx context.Context, zip string) (Place, error)
}
