package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/notify"
	"github.com/weathervane/weathervane/internal/pkg/cronlog"
	"github.com/weathervane/weathervane/internal/pkg/ctxlog"
	"github.com/weathervane/weathervane/internal/weather"
)

// Config contains alert filter configuration.
type Config struct {
	PollInterval time.Duration
	BatchLimit   int
	Workers      int
	SeenTTL      time.Duration
	SeenGrace    time.Duration
}

// DefaultConfig returns default alert filter configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Minute,
		BatchLimit:   10,
		Workers:      4,
		SeenTTL:      168 * time.Hour,
		SeenGrace:    24 * time.Hour,
	}
}

// ZipSource resolves a user's saved zip code. An empty result means the
// user has none saved.
type ZipSource interface {
	SavedZip(ctx context.Context, userID int64) (string, error)
}

// Dispatcher delivers rendered messages to users.
type Dispatcher interface {
	WaitReady(ctx context.Context) error
	Deliver(ctx context.Context, userID int64, msg notify.Message) error
}

// Filter polls active weather alerts for every opted-in user and
// delivers the ones that clear the user's severity threshold and have
// not been delivered before. Cycles never overlap: a poll firing while
// the previous cycle is still running is skipped.
type Filter struct {
	config     Config
	repo       Repository
	zips       ZipSource
	geocoder   geo.Geocoder
	provider   weather.AlertProvider
	dispatcher Dispatcher

	clock   clockwork.Clock
	cron    *cron.Cron
	ctx     context.Context
	started chan struct{}
}

// NewFilter creates the recurring alert check loop.
func NewFilter(config Config, repo Repository, zips ZipSource, geocoder geo.Geocoder, provider weather.AlertProvider, dispatcher Dispatcher) (*Filter, error) {
	f := &Filter{
		config:     config,
		repo:       repo,
		zips:       zips,
		geocoder:   geocoder,
		provider:   provider,
		dispatcher: dispatcher,
		clock:      clockwork.NewRealClock(),
		ctx:        context.Background(),
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronlog.New(slog.Default()))))
	if _, err := c.AddFunc("@every "+config.PollInterval.String(), func() { f.runCycle(f.ctx) }); err != nil {
		return nil, fmt.Errorf("schedule alert poll: %w", err)
	}
	f.cron = c
	return f, nil
}

// Start begins polling once the delivery channel reports ready.
func (f *Filter) Start(ctx context.Context) {
	f.ctx = ctx
	f.started = make(chan struct{})
	slog.Info("starting alert filter",
		"poll_interval", f.config.PollInterval,
		"batch_limit", f.config.BatchLimit,
		"workers", f.config.Workers,
	)

	go func() {
		defer close(f.started)
		if err := f.dispatcher.WaitReady(ctx); err != nil {
			slog.Error("alert filter not started", "error", err)
			return
		}
		f.cron.Start()
	}()
}

// Stop stops polling and waits for a running cycle to finish. Cancel
// the context passed to Start first so a still-pending readiness wait
// unblocks.
func (f *Filter) Stop() {
	if f.started != nil {
		<-f.started
	}
	<-f.cron.Stop().Done()
	slog.Info("alert filter stopped")
}

func (f *Filter) runCycle(ctx context.Context) {
	start := f.clock.Now()
	ctx = ctxlog.With(ctx, "cycle_id", uuid.NewString())

	pruned, err := f.repo.PruneSeen(ctx, start)
	if err != nil {
		ctxlog.FromContext(ctx).Error("prune seen alerts", "error", err)
	} else if pruned > 0 {
		ctxlog.FromContext(ctx).Debug("pruned expired seen alerts", "count", pruned)
	}

	users, err := f.repo.CandidateUserIDs(ctx)
	if err != nil {
		ctxlog.FromContext(ctx).Error("fetch alert candidates", "error", err)
		recordCycle("error", f.clock.Since(start))
		return
	}

	if len(users) > 0 {
		var g errgroup.Group
		g.SetLimit(f.config.Workers)
		for _, userID := range users {
			g.Go(func() error {
				f.processUser(ctx, userID)
				return nil
			})
		}
		_ = g.Wait()
	}

	recordCycle("ok", f.clock.Since(start))
}

// processUser checks one user's location for fresh alerts. Failures stay
// inside this call: a panicking or erroring user never disturbs the
// rest, and nothing is marked seen unless delivery succeeded, so a
// failed user is retried whole on the next cycle.
func (f *Filter) processUser(ctx context.Context, userID int64) {
	ctx = ctxlog.With(ctx, "user_id", userID)

	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("alert check panicked", "panic", r)
			recordUser("panic")
		}
	}()

	prefs, err := f.repo.Prefs(ctx, userID)
	if err != nil {
		ctxlog.FromContext(ctx).Error("fetch alert prefs", "error", err)
		recordUser("error")
		return
	}
	if !prefs.Enabled {
		recordUser("disabled")
		return
	}

	zip := prefs.Zip
	if zip == "" {
		zip, err = f.zips.SavedZip(ctx, userID)
		if err != nil {
			ctxlog.FromContext(ctx).Error("look up saved zip", "error", err)
			recordUser("error")
			return
		}
	}
	if !domain.ValidZip(zip) {
		ctxlog.FromContext(ctx).Debug("alerts enabled but no usable zip")
		recordUser("skipped")
		return
	}

	place, err := f.geocoder.Lookup(ctx, zip)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("geocode alert location", "zip", zip, "error", err)
		recordUser("error")
		return
	}

	active, err := f.provider.ActiveAlerts(ctx, weather.Location{Lat: place.Lat, Lon: place.Lon})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("fetch active alerts", "zip", zip, "error", err)
		recordUser("error")
		return
	}

	fresh, err := f.selectFresh(ctx, userID, prefs.MinSeverity, active)
	if err != nil {
		ctxlog.FromContext(ctx).Error("check seen alerts", "error", err)
		recordUser("error")
		return
	}
	if len(fresh) == 0 {
		recordUser("quiet")
		return
	}

	// Overflow beyond the batch limit stays unseen and goes out next cycle.
	if len(fresh) > f.config.BatchLimit {
		fresh = fresh[:f.config.BatchLimit]
	}

	if err := f.dispatcher.Deliver(ctx, userID, notify.NewAlertsMessage(place, zip, fresh, f.clock.Now())); err != nil {
		ctxlog.FromContext(ctx).Warn("alert delivery failed, will retry", "error", err)
		recordUser("error")
		return
	}

	if err := f.repo.MarkSeen(ctx, userID, f.seenRecords(fresh)); err != nil {
		ctxlog.FromContext(ctx).Error("mark alerts seen, duplicates possible", "error", err)
	}

	recordUser("delivered")
	recordDelivered(len(fresh))
	ctxlog.FromContext(ctx).Info("alerts delivered", "count", len(fresh), "zip", zip)
}

// selectFresh keeps alerts at or above the user's threshold that have
// not been delivered to them yet. Alerts without an ID cannot be
// deduplicated and are dropped.
func (f *Filter) selectFresh(ctx context.Context, userID int64, minSeverity domain.Severity, active []weather.Alert) ([]weather.Alert, error) {
	candidates := make([]weather.Alert, 0, len(active))
	ids := make([]string, 0, len(active))
	for _, a := range active {
		if a.ID == "" {
			continue
		}
		if domain.RankReported(a.Severity) < minSeverity {
			continue
		}
		candidates = append(candidates, a)
		ids = append(ids, a.ID)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	seen, err := f.repo.SeenIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	fresh := candidates[:0]
	for _, a := range candidates {
		if !seen[a.ID] {
			fresh = append(fresh, a)
		}
	}
	return fresh, nil
}

// seenRecords builds dedup entries for delivered alerts. An alert with a
// parseable end time expires a grace period after it ends; anything else
// falls back to the fixed TTL.
func (f *Filter) seenRecords(delivered []weather.Alert) []SeenAlert {
	now := f.clock.Now()
	records := make([]SeenAlert, 0, len(delivered))
	for _, a := range delivered {
		expires := now.Add(f.config.SeenTTL)
		if a.Ends != "" {
			if ends, err := time.Parse(time.RFC3339, a.Ends); err == nil {
				expires = ends.Add(f.config.SeenGrace)
			}
		}
		records = append(records, SeenAlert{ID: a.ID, ExpiresAt: expires})
	}
	return records
}
