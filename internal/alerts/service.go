package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/weathervane/weathervane/internal/domain"
)

// Service implements alert preference business logic.
type Service struct {
	repo       Repository
	defaultMin domain.Severity
}

// NewService creates a new alert preference service. defaultMin is the
// threshold applied when a user sets preferences without naming one.
func NewService(repo Repository, defaultMin domain.Severity) *Service {
	return &Service{repo: repo, defaultMin: defaultMin}
}

// SetPrefsInput holds data for updating a user's alert preferences.
type SetPrefsInput struct {
	Enabled     bool
	Zip         string
	MinSeverity string
}

// SetPrefs validates and stores a user's alert preferences. The zip is
// optional: when empty, alert checks fall back to the user's saved
// location. An empty severity takes the configured default.
func (s *Service) SetPrefs(ctx context.Context, userID int64, input SetPrefsInput) (domain.AlertPrefs, error) {
	zip := domain.NormalizeZip(input.Zip)
	if zip != "" && !domain.ValidZip(zip) {
		return domain.AlertPrefs{}, ErrInvalidZip
	}

	severity := s.defaultMin
	if name := strings.TrimSpace(input.MinSeverity); name != "" {
		switch strings.ToLower(name) {
		case "advisory", "watch", "warning":
			severity = domain.ParseThreshold(name)
		default:
			return domain.AlertPrefs{}, fmt.Errorf("%w: %s", ErrInvalidSeverity, name)
		}
	}

	prefs := domain.AlertPrefs{
		UserID:      userID,
		Enabled:     input.Enabled,
		Zip:         zip,
		MinSeverity: severity,
	}
	if err := s.repo.SetPrefs(ctx, prefs); err != nil {
		return domain.AlertPrefs{}, fmt.Errorf("save alert prefs: %w", err)
	}
	return prefs, nil
}

// Prefs returns a user's alert preferences, defaulted when never set.
func (s *Service) Prefs(ctx context.Context, userID int64) (domain.AlertPrefs, error) {
	return s.repo.Prefs(ctx, userID)
}
