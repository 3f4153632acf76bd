// Package schedule manages forecast subscriptions and the recurring
// loop that dispatches them at their local wall-clock times.
package schedule

import (
	"context"
	"time"

	"github.com/weathervane/weathervane/internal/domain"
)

// Repository defines the interface for subscription data operations.
type Repository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Subscription, error)
	Remove(ctx context.Context, userID, subID int64) error

	// Due returns subscriptions whose next run is at or before now,
	// ordered by next run ascending.
	Due(ctx context.Context, now time.Time, limit int) ([]domain.Subscription, error)

	// Claim leases a due subscription by pushing its next run to
	// retryAt, but only while the row is still due. Returns false when
	// another worker claimed it first.
	Claim(ctx context.Context, subID int64, now, retryAt time.Time) (bool, error)

	SetNextRun(ctx context.Context, subID int64, nextRun time.Time) error
}
