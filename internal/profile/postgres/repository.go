// Package postgres provides the PostgreSQL implementation of the
// profile repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/profile"
)

// Repository implements the profile.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetLocation retrieves a user's saved home location.
func (r *Repository) GetLocation(ctx context.Context, userID int64) (*domain.SavedLocation, error) {
	query := `
		SELECT user_id, zip, updated_at
		FROM user_locations
		WHERE user_id = $1
	`
	var loc domain.SavedLocation
	err := r.db.QueryRow(ctx, query, userID).Scan(&loc.UserID, &loc.Zip, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrLocationNotFound
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// SetLocation upserts a user's saved home location.
func (r *Repository) SetLocation(ctx context.Context, userID int64, zip string) (*domain.SavedLocation, error) {
	query := `
		INSERT INTO user_locations (user_id, zip, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET zip = EXCLUDED.zip, updated_at = now()
		RETURNING user_id, zip, updated_at
	`
	var loc domain.SavedLocation
	err := r.db.QueryRow(ctx, query, userID, zip).Scan(&loc.UserID, &loc.Zip, &loc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set location: %w", err)
	}
	return &loc, nil
}

// GetNote retrieves the note stored under key for a user.
func (r *Repository) GetNote(ctx context.Context, userID int64, key string) (string, error) {
	query := `
		SELECT value
		FROM notes
		WHERE user_id = $1 AND key = $2
	`
	var value string
	err := r.db.QueryRow(ctx, query, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", profile.ErrNoteNotFound
		}
		return "", fmt.Errorf("get note: %w", err)
	}
	return value, nil
}

// SetNote upserts the note stored under key for a user.
func (r *Repository) SetNote(ctx context.Context, userID int64, key, value string) error {
	query := `
		INSERT INTO notes (user_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE
		SET value = EXCLUDED.value
	`
	if _, err := r.db.Exec(ctx, query, userID, key, value); err != nil {
		return fmt.Errorf("set note: %w", err)
	}
	return nil
}
