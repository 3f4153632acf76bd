// Package postgres provides the PostgreSQL implementation of the
// schedule repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/schedule"
)

const subscriptionColumns = "id, user_id, zip, cadence, hour, minute, outlook_days, timezone, units, next_run, created_at"

// Repository implements the schedule.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a subscription and fills in its generated fields.
func (r *Repository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, zip, cadence, hour, minute, outlook_days, timezone, units, next_run)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.Zip,
		sub.Cadence,
		sub.Hour,
		sub.Minute,
		sub.OutlookDays,
		sub.Timezone,
		sub.Units,
		sub.NextRun,
	).Scan(&sub.ID, &sub.CreatedAt)

	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's subscriptions ordered by next run.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY next_run
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// Remove deletes a subscription owned by the user.
func (r *Repository) Remove(ctx context.Context, userID, subID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`, subID, userID)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrSubscriptionNotFound
	}
	return nil
}

// Due retrieves subscriptions due at or before now, soonest first.
func (r *Repository) Due(ctx context.Context, now time.Time, limit int) ([]domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE next_run <= $1
		ORDER BY next_run
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// Claim leases a due subscription by advancing next_run to retryAt. The
// due condition is re-checked in the same statement, so of two workers
// holding the same row only one claim succeeds.
func (r *Repository) Claim(ctx context.Context, subID int64, now, retryAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET next_run = $3 WHERE id = $1 AND next_run <= $2`,
		subID, now, retryAt,
	)
	if err != nil {
		return false, fmt.Errorf("claim subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetNextRun stores the next occurrence for a subscription.
func (r *Repository) SetNextRun(ctx context.Context, subID int64, nextRun time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE subscriptions SET next_run = $2 WHERE id = $1`, subID, nextRun)
	if err != nil {
		return fmt.Errorf("set next run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrSubscriptionNotFound
	}
	return nil
}

func scanSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Zip,
			&sub.Cadence,
			&sub.Hour,
			&sub.Minute,
			&sub.OutlookDays,
			&sub.Timezone,
			&sub.Units,
			&sub.NextRun,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}
