// Package config defines the iatfmon configuration tree.  No I/O lives in
// this file; only data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// EngineConfig tunes the timeline engine.
type EngineConfig struct {
	WindowDays      int    `mapstructure:"window_days"`
	Timezone        string `mapstructure:"timezone"`         // IANA name; calendar days are counted here
	RemovalFallback string `mapstructure:"removal_fallback"` // "day_offset" | "skip"
}

// SourceConfig locates the protocol export.
type SourceConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // "" (by extension) | "json" | "yaml"
}

// CacheConfig sizes the projection LRU.  Size 0 disables caching.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// MetricsConfig controls the Prometheus registry and its textfile export.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Namespace    string `mapstructure:"namespace"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// WatchConfig drives the watch command.
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration.
type Config struct {
	Engine  EngineConfig      `mapstructure:"engine"`
	Source  SourceConfig      `mapstructure:"source"`
	Cache   CacheConfig       `mapstructure:"cache"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Watch   WatchConfig       `mapstructure:"watch"`
	Log     logging.LogConfig `mapstructure:"log"`
}

// Location resolves Engine.Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "engine.timezone is not a known location").
			WithDetail(fmt.Sprintf("timezone=%q", c.Engine.Timezone))
	}
	return loc, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks a fully-populated Config and returns the first problem as
// a CodeConfigInvalid error.
func (c *Config) Validate() error {
	// Engine
	if c.Engine.WindowDays < 0 {
		return invalid("engine.window_days must be >= 0, got %d", c.Engine.WindowDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := protocol.ParseRemovalFallback(c.Engine.RemovalFallback); err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "engine.removal_fallback is invalid")
	}

	// Source
	switch c.Source.Format {
	case "", "json", "yaml":
	default:
		return invalid("source.format %q is invalid; expected json|yaml", c.Source.Format)
	}

	// Cache
	if c.Cache.Size < 0 {
		return invalid("cache.size must be >= 0, got %d", c.Cache.Size)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}

	// Watch
	if c.Watch.Interval <= 0 {
		return invalid("watch.interval must be > 0, got %s", c.Watch.Interval)
	}
	if c.Watch.Debounce < 0 {
		return invalid("watch.debounce must be >= 0, got %s", c.Watch.Debounce)
	}

	// Log
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeConfigInvalid, "config: "+format, args...)
}
