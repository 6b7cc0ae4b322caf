// Package config provides centralized configuration management for the ingester.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Feeds    FeedsConfig
	Schedule ScheduleConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the store: postgres, sqlite or memory (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, or the SQLite file path.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	// Required unless Driver is memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// ConnectTimeout bounds connecting and pinging the database (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`

	// BootstrapSchema creates the tables on startup if missing (default: false).
	// SQLite databases are always bootstrapped.
	BootstrapSchema bool `env:"DB_BOOTSTRAP_SCHEMA" default:"false"`
}

// FeedsConfig holds the locations and format of the input feeds.
type FeedsConfig struct {
	// LandPath is the land stations export (default: data/preciosEESS.csv)
	LandPath string `env:"FEED_LAND_PATH" default:"data/preciosEESS.csv"`

	// MaritimePath is the maritime stations export (default: data/embarcaciones.csv)
	MaritimePath string `env:"FEED_MARITIME_PATH" default:"data/embarcaciones.csv"`

	// Encoding of both files: utf-8, windows-1252, iso-8859-1, iso-8859-15 (default: utf-8)
	Encoding string `env:"FEED_ENCODING" default:"utf-8"`

	// LayoutsFile replaces the built-in column layouts when set
	LayoutsFile string `env:"FEED_LAYOUTS_FILE"`
}

// Paths maps registered feed keys to their configured files.
func (c *FeedsConfig) Paths() map[string]string {
	return map[string]string{
		"land":     c.LandPath,
		"maritime": c.MaritimePath,
	}
}

// ScheduleConfig holds periodic run settings.
type ScheduleConfig struct {
	// Spec is a 5-field cron expression. Empty runs once and exits.
	Spec string `env:"INGEST_SCHEDULE"`

	// Timezone in which Spec is evaluated (default: Europe/Madrid)
	Timezone string `env:"INGEST_TIMEZONE" default:"Europe/Madrid"`
}

// Enabled reports whether the ingester runs on a schedule.
func (c *ScheduleConfig) Enabled() bool {
	return c.Spec != ""
}

// Location loads the configured timezone.
func (c *ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile is written after every run when set, for node_exporter's
	// textfile collector
	Textfile string `env:"METRICS_TEXTFILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
