//go:build integration

package integration

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weathervane/weathervane/internal/app"
	"github.com/weathervane/weathervane/internal/config"
	"github.com/weathervane/weathervane/internal/testutil"
)

var (
	testServer *httptest.Server
	testClient *testutil.Client
	testDB     *pgxpool.Pool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	// Hour-long poll intervals keep the background workers from firing
	// mid-test; worker behavior is covered by their package tests.
	cfg := &config.Config{
		Server: config.Server{
			Host: "127.0.0.1",
			Port: 0,
		},
		Database: config.Database{
			URL:             pgContainer.ConnectionString,
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 3,
		},
		Log: config.Log{
			Level:  "error",
			Format: "text",
		},
		Timezone: config.Timezone{
			Default: "America/Chicago",
		},
		Scheduler: config.Scheduler{
			PollInterval: time.Hour,
			RetryBackoff: 5 * time.Minute,
			BatchSize:    50,
			Workers:      2,
		},
		Alerts: config.Alerts{
			PollInterval:       time.Hour,
			BatchLimit:         10,
			Workers:            2,
			SeenTTL:            168 * time.Hour,
			SeenGrace:          24 * time.Hour,
			DefaultMinSeverity: "watch",
		},
		Providers: config.Providers{
			UserAgent:     "weathervane-tests",
			Timeout:       5 * time.Second,
			OpenMeteoURL:  "https://api.open-meteo.com",
			NWSURL:        "https://api.weather.gov",
			ZippopotamURL: "https://api.zippopotam.us",
			GeocodeCache:  16,
		},
		Notify: config.Notify{
			Channel: "log",
		},
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	testDB, err = pgxpool.New(ctx, pgContainer.ConnectionString)
	if err != nil {
		log.Fatalf("create test db pool: %v", err)
	}

	testServer = httptest.NewServer(application.Router())
	testClient = testutil.NewClient(testServer.URL)

	code := m.Run()

	testServer.Close()
	testDB.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown app: %v", err)
	}

	os.Exit(code)
}
