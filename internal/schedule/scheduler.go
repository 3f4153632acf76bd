package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/weathervane/weathervane/internal/civiltime"
	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/notify"
	"github.com/weathervane/weathervane/internal/pkg/cronlog"
	"github.com/weathervane/weathervane/internal/pkg/ctxlog"
	"github.com/weathervane/weathervane/internal/weather"
)

// Config contains scheduler configuration.
type Config struct {
	PollInterval time.Duration
	RetryBackoff time.Duration
	BatchSize    int
	Workers      int
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Minute,
		RetryBackoff: 5 * time.Minute,
		BatchSize:    50,
		Workers:      4,
	}
}

// Dispatcher delivers rendered messages to users.
type Dispatcher interface {
	WaitReady(ctx context.Context) error
	Deliver(ctx context.Context, userID int64, msg notify.Message) error
}

// Scheduler polls for due subscriptions and dispatches their forecasts.
// Cycles never overlap: a poll firing while the previous cycle is still
// running is skipped.
type Scheduler struct {
	config     Config
	repo       Repository
	geocoder   geo.Geocoder
	provider   weather.ForecastProvider
	dispatcher Dispatcher

	clock   clockwork.Clock
	cron    *cron.Cron
	ctx     context.Context
	started chan struct{}
}

// NewScheduler creates the recurring forecast dispatch loop.
func NewScheduler(config Config, repo Repository, geocoder geo.Geocoder, provider weather.ForecastProvider, dispatcher Dispatcher) (*Scheduler, error) {
	s := &Scheduler{
		config:     config,
		repo:       repo,
		geocoder:   geocoder,
		provider:   provider,
		dispatcher: dispatcher,
		clock:      clockwork.NewRealClock(),
		ctx:        context.Background(),
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronlog.New(slog.Default()))))
	if _, err := c.AddFunc("@every "+config.PollInterval.String(), func() { s.runCycle(s.ctx) }); err != nil {
		return nil, fmt.Errorf("schedule poll: %w", err)
	}
	s.cron = c
	return s, nil
}

// Start begins polling once the delivery channel reports ready, so the
// first cycle cannot fire into a channel that would reject everything.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.started = make(chan struct{})
	slog.Info("starting forecast scheduler",
		"poll_interval", s.config.PollInterval,
		"batch_size", s.config.BatchSize,
		"workers", s.config.Workers,
	)

	go func() {
		defer close(s.started)
		if err := s.dispatcher.WaitReady(ctx); err != nil {
			slog.Error("forecast scheduler not started", "error", err)
			return
		}
		s.cron.Start()
	}()
}

// Stop stops polling and waits for a running cycle to finish. Cancel
// the context passed to Start first so a still-pending readiness wait
// unblocks.
func (s *Scheduler) Stop() {
	if s.started != nil {
		<-s.started
	}
	<-s.cron.Stop().Done()
	slog.Info("forecast scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := s.clock.Now()
	ctx = ctxlog.With(ctx, "cycle_id", uuid.NewString())

	due, err := s.repo.Due(ctx, start, s.config.BatchSize)
	if err != nil {
		ctxlog.FromContext(ctx).Error("fetch due subscriptions", "error", err)
		recordCycle("error", s.clock.Since(start))
		return
	}

	if len(due) > 0 {
		ctxlog.FromContext(ctx).Debug("processing due subscriptions", "count", len(due))

		var g errgroup.Group
		g.SetLimit(s.config.Workers)
		for _, sub := range due {
			g.Go(func() error {
				s.processSubscription(ctx, sub)
				return nil
			})
		}
		_ = g.Wait()
	}

	recordCycle("ok", s.clock.Since(start))
}

// processSubscription handles one due subscription. Failures stay inside
// this call: a panicking or erroring item never disturbs its siblings,
// and its claim lease doubles as the retry backoff.
func (s *Scheduler) processSubscription(ctx context.Context, sub domain.Subscription) {
	ctx = ctxlog.With(ctx, "subscription_id", sub.ID, "user_id", sub.UserID)

	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("subscription dispatch panicked", "panic", r)
			recordSubscription("panic")
		}
	}()

	now := s.clock.Now()
	claimed, err := s.repo.Claim(ctx, sub.ID, now, now.Add(s.config.RetryBackoff))
	if err != nil {
		ctxlog.FromContext(ctx).Error("claim subscription", "error", err)
		recordSubscription("error")
		return
	}
	if !claimed {
		recordSubscription("skipped")
		return
	}

	loc, err := civiltime.LoadZone(sub.Timezone)
	if err != nil {
		ctxlog.FromContext(ctx).Error("subscription has unusable timezone", "timezone", sub.Timezone, "error", err)
		recordSubscription("error")
		return
	}

	if err := s.deliver(ctx, sub); err != nil {
		ctxlog.FromContext(ctx).Warn("forecast delivery failed, will retry", "error", err)
		recordSubscription("error")
		return
	}

	next := civiltime.NextOccurrence(s.clock.Now(), sub.Hour, sub.Minute, sub.Cadence, loc)
	if err := s.repo.SetNextRun(ctx, sub.ID, next); err != nil {
		ctxlog.FromContext(ctx).Error("reschedule subscription", "error", err)
		recordSubscription("error")
		return
	}

	recordSubscription("success")
	ctxlog.FromContext(ctx).Info("forecast dispatched", "cadence", sub.Cadence, "next_run", next)
}

func (s *Scheduler) deliver(ctx context.Context, sub domain.Subscription) error {
	place, err := s.geocoder.Lookup(ctx, sub.Zip)
	if err != nil {
		return fmt.Errorf("geocode %s: %w", sub.Zip, err)
	}

	days, err := s.provider.Outlook(ctx, weather.Location{Lat: place.Lat, Lon: place.Lon}, sub.OutlookSpan(), sub.Units)
	if err != nil {
		return fmt.Errorf("fetch outlook: %w", err)
	}

	return s.dispatcher.Deliver(ctx, sub.UserID, notify.NewForecastMessage(sub, place, days, s.clock.Now()))
}
