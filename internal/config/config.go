// Package config loads service configuration from an optional YAML file
// overlaid with WEATHERVANE_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WEATHERVANE_"

type Config struct {
	Server    Server    `koanf:"server"`
	Database  Database  `koanf:"database"`
	Log       Log       `koanf:"log"`
	Timezone  Timezone  `koanf:"timezone"`
	Scheduler Scheduler `koanf:"scheduler"`
	Alerts    Alerts    `koanf:"alerts"`
	Providers Providers `koanf:"providers"`
	Notify    Notify    `koanf:"notify"`
}

type Server struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	MetricsPort       int           `koanf:"metrics_port" validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"min=1s"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"min=1s"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"min=1s"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"min=1s"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
}

type Database struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxConns        int           `koanf:"max_conns" validate:"min=1"`
	MinConns        int           `koanf:"min_conns" validate:"min=0"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"min=1s"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"min=1"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type Timezone struct {
	// Default applies only to subscriptions created without an explicit
	// zone; a user-set zone is never substituted.
	Default string `koanf:"default" validate:"required"`
}

type Scheduler struct {
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1s"`
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"min=1s"`
	BatchSize    int           `koanf:"batch_size" validate:"min=1"`
	Workers      int           `koanf:"workers" validate:"min=1"`
}

type Alerts struct {
	PollInterval       time.Duration `koanf:"poll_interval" validate:"min=1s"`
	BatchLimit         int           `koanf:"batch_limit" validate:"min=1"`
	Workers            int           `koanf:"workers" validate:"min=1"`
	SeenTTL            time.Duration `koanf:"seen_ttl" validate:"min=1h"`
	SeenGrace          time.Duration `koanf:"seen_grace" validate:"min=0"`
	DefaultMinSeverity string        `koanf:"default_min_severity" validate:"oneof=advisory watch warning"`
}

type Providers struct {
	UserAgent     string        `koanf:"user_agent" validate:"required"`
	Timeout       time.Duration `koanf:"timeout" validate:"min=1s"`
	OpenMeteoURL  string        `koanf:"open_meteo_url" validate:"url"`
	NWSURL        string        `koanf:"nws_url" validate:"url"`
	ZippopotamURL string        `koanf:"zippopotam_url" validate:"url"`
	GeocodeCache  int           `koanf:"geocode_cache" validate:"min=0"`
}

type Notify struct {
	Channel string  `koanf:"channel" validate:"oneof=discord log"`
	Discord Discord `koanf:"discord"`
}

type Discord struct {
	Token             string        `koanf:"token"`
	APIURL            string        `koanf:"api_url" validate:"url"`
	Timeout           time.Duration `koanf:"timeout" validate:"min=1s"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
}

// Default returns the configuration used when no file or environment
// overrides are present. The database URL has no default and must be set.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:              "0.0.0.0",
			Port:              8080,
			MetricsPort:       9090,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Database: Database{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			ConnectTimeout:  60 * time.Second,
			ConnectAttempts: 5,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Timezone: Timezone{
			Default: "America/Chicago",
		},
		Scheduler: Scheduler{
			PollInterval: time.Minute,
			RetryBackoff: 5 * time.Minute,
			BatchSize:    50,
			Workers:      4,
		},
		Alerts: Alerts{
			PollInterval:       5 * time.Minute,
			BatchLimit:         10,
			Workers:            4,
			SeenTTL:            168 * time.Hour,
			SeenGrace:          24 * time.Hour,
			DefaultMinSeverity: "watch",
		},
		Providers: Providers{
			UserAgent:     "weathervane/0.1 (+https://github.com/weathervane/weathervane)",
			Timeout:       15 * time.Second,
			OpenMeteoURL:  "https://api.open-meteo.com",
			NWSURL:        "https://api.weather.gov",
			ZippopotamURL: "https://api.zippopotam.us",
			GeocodeCache:  256,
		},
		Notify: Notify{
			Channel: "log",
			Discord: Discord{
				APIURL:            "https://discord.com/api/v10",
				Timeout:           10 * time.Second,
				RequestsPerSecond: 5,
			},
		},
	}
}

// Load reads the optional YAML file at path, overlays environment
// variables, and validates the result. Environment keys use double
// underscores as section separators, e.g. WEATHERVANE_DATABASE__URL
// maps to database.url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
