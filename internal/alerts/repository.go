// Package alerts watches active weather alerts for opted-in users and
// delivers the ones they have not seen yet, filtered by their minimum
// severity.
package alerts

import (
	"context"
	"time"

	"github.com/weathervane/weathervane/internal/domain"
)

// SeenAlert records that an alert was delivered to a user. The entry
// suppresses redelivery until it expires.
type SeenAlert struct {
	ID        string
	ExpiresAt time.Time
}

// Repository defines alert preference and dedup storage operations.
type Repository interface {
	// Prefs returns a user's alert preferences. A user with no stored
	// row gets the defaults: disabled, no zip, watch threshold.
	Prefs(ctx context.Context, userID int64) (domain.AlertPrefs, error)
	// SetPrefs stores a user's alert preferences, replacing any
	// existing row.
	SetPrefs(ctx context.Context, prefs domain.AlertPrefs) error
	// CandidateUserIDs returns every user known to the system, deduplicated
	// across subscriptions, saved locations and alert preferences.
	CandidateUserIDs(ctx context.Context) ([]int64, error)
	// SeenIDs reports which of the given alert IDs the user has already
	// been shown.
	SeenIDs(ctx context.Context, userID int64, alertIDs []string) (map[string]bool, error)
	// MarkSeen records delivered alerts so they are not sent again.
	MarkSeen(ctx context.Context, userID int64, seen []SeenAlert) error
	// PruneSeen removes dedup entries that expired at or before now and
	// returns how many were removed.
	PruneSeen(ctx context.Context, now time.Time) (int64, error)
}
