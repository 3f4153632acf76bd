// Package postgres provides the PostgreSQL implementation of the
// alerts repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/alerts"
	"github.com/weathervane/weathervane/internal/domain"
)

// Repository implements the alerts.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Prefs retrieves a user's alert preferences. A user without a stored
// row gets the defaults: disabled, no zip, watch threshold.
func (r *Repository) Prefs(ctx context.Context, userID int64) (domain.AlertPrefs, error) {
	query := `
		SELECT user_id, enabled, zip, min_severity
		FROM alert_prefs
		WHERE user_id = $1
	`
	var (
		prefs    domain.AlertPrefs
		severity string
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.Enabled,
		&prefs.Zip,
		&severity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AlertPrefs{UserID: userID, MinSeverity: domain.SeverityWatch}, nil
	}
	if err != nil {
		return domain.AlertPrefs{}, fmt.Errorf("get alert prefs: %w", err)
	}

	prefs.MinSeverity = domain.ParseThreshold(severity)
	return prefs, nil
}

// SetPrefs upserts a user's alert preferences.
func (r *Repository) SetPrefs(ctx context.Context, prefs domain.AlertPrefs) error {
	query := `
		INSERT INTO alert_prefs (user_id, enabled, zip, min_severity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			zip = EXCLUDED.zip,
			min_severity = EXCLUDED.min_severity
	`
	_, err := r.db.Exec(ctx, query,
		prefs.UserID,
		prefs.Enabled,
		prefs.Zip,
		prefs.MinSeverity.String(),
	)
	if err != nil {
		return fmt.Errorf("set alert prefs: %w", err)
	}
	return nil
}

// CandidateUserIDs retrieves every user ID known to the system. UNION
// deduplicates users present in more than one table.
func (r *Repository) CandidateUserIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT user_id FROM subscriptions
		UNION
		SELECT user_id FROM user_locations
		UNION
		SELECT user_id FROM alert_prefs
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alert candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan alert candidate: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert candidates: %w", err)
	}
	return ids, nil
}

// SeenIDs reports which of the given alert IDs the user has already
// been shown.
func (r *Repository) SeenIDs(ctx context.Context, userID int64, alertIDs []string) (map[string]bool, error) {
	if len(alertIDs) == 0 {
		return map[string]bool{}, nil
	}

	query := `
		SELECT alert_id
		FROM alert_seen
		WHERE user_id = $1 AND alert_id = ANY($2)
	`
	rows, err := r.db.Query(ctx, query, userID, alertIDs)
	if err != nil {
		return nil, fmt.Errorf("list seen alerts: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool, len(alertIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen alert: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen alerts: %w", err)
	}
	return seen, nil
}

// MarkSeen records delivered alerts in one round trip.
func (r *Repository) MarkSeen(ctx context.Context, userID int64, seen []alerts.SeenAlert) error {
	if len(seen) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range seen {
		batch.Queue(`
			INSERT INTO alert_seen (user_id, alert_id, seen_at, expires_at)
			VALUES ($1, $2, now(), $3)
			ON CONFLICT (user_id, alert_id) DO NOTHING
		`, userID, s.ID, s.ExpiresAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range seen {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("mark alert seen: %w", err)
		}
	}
	return nil
}

// PruneSeen removes dedup entries that expired at or before now.
func (r *Repository) PruneSeen(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM alert_seen WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("prune seen alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}
