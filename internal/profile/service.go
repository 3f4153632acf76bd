package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/weathervane/weathervane/internal/domain"
)

// Service implements profile business logic.
type Service struct {
	repo Repository
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetLocation validates and saves a user's home zip code. Input is
// normalized to bare digits, so "60601-1234" is rejected rather than
// silently trimmed.
func (s *Service) SetLocation(ctx context.Context, userID int64, zip string) (*domain.SavedLocation, error) {
	normalized := domain.NormalizeZip(zip)
	if !domain.ValidZip(normalized) {
		return nil, ErrInvalidZip
	}

	loc, err := s.repo.SetLocation(ctx, userID, normalized)
	if err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	return loc, nil
}

// Location returns a user's saved home location.
func (s *Service) Location(ctx context.Context, userID int64) (*domain.SavedLocation, error) {
	return s.repo.GetLocation(ctx, userID)
}

// SavedZip returns the user's saved zip code, or an empty string when
// none is stored. Satisfies the zip fallback used by weather lookups
// and alert routing.
func (s *Service) SavedZip(ctx context.Context, userID int64) (string, error) {
	loc, err := s.repo.GetLocation(ctx, userID)
	if errors.Is(err, ErrLocationNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return loc.Zip, nil
}

// Note returns the note stored under key for a user.
func (s *Service) Note(ctx context.Context, userID int64, key string) (string, error) {
	return s.repo.GetNote(ctx, userID, key)
}

// SetNote stores a free-form note under key for a user.
func (s *Service) SetNote(ctx context.Context, userID int64, key, value string) error {
	if err := s.repo.SetNote(ctx, userID, key, value); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
