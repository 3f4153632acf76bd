// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weathervane/weathervane/internal/alerts"
	alertspostgres "github.com/weathervane/weathervane/internal/alerts/postgres"
	"github.com/weathervane/weathervane/internal/civiltime"
	"github.com/weathervane/weathervane/internal/config"
	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
	"github.com/weathervane/weathervane/internal/geo/zippopotam"
	"github.com/weathervane/weathervane/internal/notify"
	"github.com/weathervane/weathervane/internal/notify/discord"
	"github.com/weathervane/weathervane/internal/pkg/ctxlog"
	"github.com/weathervane/weathervane/internal/pkg/httputil"
	"github.com/weathervane/weathervane/internal/pkg/metrics"
	"github.com/weathervane/weathervane/internal/pkg/postgres"
	"github.com/weathervane/weathervane/internal/profile"
	profilepostgres "github.com/weathervane/weathervane/internal/profile/postgres"
	"github.com/weathervane/weathervane/internal/schedule"
	schedulepostgres "github.com/weathervane/weathervane/internal/schedule/postgres"
	"github.com/weathervane/weathervane/internal/version"
	"github.com/weathervane/weathervane/internal/weather"
	"github.com/weathervane/weathervane/internal/weather/nws"
	"github.com/weathervane/weathervane/internal/weather/openmeteo"
	"github.com/weathervane/weathervane/migrations"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	bgCancel      context.CancelFunc
	scheduler     *schedule.Scheduler
	alertFilter   *alerts.Filter
}

// New creates a new application instance. The schema is migrated before
// any worker or handler touches the pool.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := postgres.Migrate(migrations.FS, cfg.Database.URL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bgCancel: bgCancel,
	}

	go app.collectDBMetrics(bgCtx)

	router, err := app.setupRouter(bgCtx)
	if err != nil {
		db.Close()
		bgCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application. Workers stop before
// the pool closes so in-flight cycles finish their writes.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	a.bgCancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.alertFilter != nil {
		a.alertFilter.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	geocoder := geo.NewCached(zippopotam.NewClient(zippopotam.Config{
		BaseURL:   a.config.Providers.ZippopotamURL,
		UserAgent: a.config.Providers.UserAgent,
		Timeout:   a.config.Providers.Timeout,
	}), a.config.Providers.GeocodeCache)

	forecasts := openmeteo.NewClient(openmeteo.Config{
		BaseURL:   a.config.Providers.OpenMeteoURL,
		UserAgent: a.config.Providers.UserAgent,
		Timeout:   a.config.Providers.Timeout,
	})

	alertFeed := nws.NewClient(nws.Config{
		BaseURL:   a.config.Providers.NWSURL,
		UserAgent: a.config.Providers.UserAgent,
		Timeout:   a.config.Providers.Timeout,
	})

	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	channels := []notify.Channel{notify.NewLogChannel(renderer)}
	if a.config.Notify.Discord.Token != "" {
		discordChannel, err := discord.NewChannel(discord.Config{
			Token:             a.config.Notify.Discord.Token,
			APIURL:            a.config.Notify.Discord.APIURL,
			Timeout:           a.config.Notify.Discord.Timeout,
			RequestsPerSecond: a.config.Notify.Discord.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("create discord channel: %w", err)
		}
		channels = append(channels, discordChannel)
	}

	dispatcher, err := notify.NewDispatcher(a.config.Notify.Channel, channels...)
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	profileRepo := profilepostgres.NewRepository(a.db)
	profileService := profile.NewService(profileRepo)
	profileHandler := profile.NewHandler(profileService)

	scheduleRepo := schedulepostgres.NewRepository(a.db)
	scheduleService := schedule.NewService(scheduleRepo, profileService, a.config.Timezone.Default)
	scheduleHandler := schedule.NewHandler(scheduleService)

	alertsRepo := alertspostgres.NewRepository(a.db)
	alertsService := alerts.NewService(alertsRepo, domain.ParseThreshold(a.config.Alerts.DefaultMinSeverity))
	alertsHandler := alerts.NewHandler(alertsService)

	defaultZone, err := civiltime.LoadZone(a.config.Timezone.Default)
	if err != nil {
		return nil, fmt.Errorf("load default timezone: %w", err)
	}

	weatherService := weather.NewService(profileService, geocoder, forecasts, defaultZone)
	weatherHandler := weather.NewHandler(weatherService)

	scheduler, err := schedule.NewScheduler(schedule.Config{
		PollInterval: a.config.Scheduler.PollInterval,
		RetryBackoff: a.config.Scheduler.RetryBackoff,
		BatchSize:    a.config.Scheduler.BatchSize,
		Workers:      a.config.Scheduler.Workers,
	}, scheduleRepo, geocoder, forecasts, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	alertFilter, err := alerts.NewFilter(alerts.Config{
		PollInterval: a.config.Alerts.PollInterval,
		BatchLimit:   a.config.Alerts.BatchLimit,
		Workers:      a.config.Alerts.Workers,
		SeenTTL:      a.config.Alerts.SeenTTL,
		SeenGrace:    a.config.Alerts.SeenGrace,
	}, alertsRepo, profileService, geocoder, alertFeed, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("create alert filter: %w", err)
	}

	scheduler.Start(ctx)
	alertFilter.Start(ctx)
	a.scheduler = scheduler
	a.alertFilter = alertFilter

	r.Route("/api/v1", func(r chi.Router) {
		profileHandler.RegisterRoutes(r)
		scheduleHandler.RegisterRoutes(r)
		alertsHandler.RegisterRoutes(r)
		weatherHandler.RegisterRoutes(r)
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.Log) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
