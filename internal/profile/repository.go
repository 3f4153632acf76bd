// Package profile manages per-user settings: the saved home zip code
// and free-form notes.
package profile

import (
	"context"

	"github.com/weathervane/weathervane/internal/domain"
)

// Repository defines the interface for profile data operations.
type Repository interface {
	GetLocation(ctx context.Context, userID int64) (*domain.SavedLocation, error)
	SetLocation(ctx context.Context, userID int64, zip string) (*domain.SavedLocation, error)

	GetNote(ctx context.Context, userID int64, key string) (string, error)
	SetNote(ctx context.Context, userID int64, key, value string) error
}
