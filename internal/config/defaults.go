package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
)

const (
	DefaultWindowDays      = protocol.DefaultWindowDays
	DefaultTimezone        = "UTC"
	DefaultRemovalFallback = string(protocol.FallbackDayOffset)

	DefaultSourcePath = "protocols.json"

	DefaultCacheSize = 256

	DefaultMetricsNamespace = "iatfmon"

	DefaultWatchInterval = time.Minute
	DefaultWatchDebounce = 250 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// NewDefaultConfig returns a Config populated entirely with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{Cache: CacheConfig{Size: DefaultCacheSize}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-value fields in cfg.  Explicit values always win.
// Cache.Size is left alone because 0 is a meaningful setting; the loader
// and NewDefaultConfig supply its default instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.Timezone == "" {
		cfg.Engine.Timezone = DefaultTimezone
	}
	if cfg.Engine.RemovalFallback == "" {
		cfg.Engine.RemovalFallback = DefaultRemovalFallback
	}

	// ── Source ────────────────────────────────────────────────────────────────
	if cfg.Source.Path == "" {
		cfg.Source.Path = DefaultSourcePath
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Watch ─────────────────────────────────────────────────────────────────
	if cfg.Watch.Interval == 0 {
		cfg.Watch.Interval = DefaultWatchInterval
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// setViperDefaults registers every key with viper.  AutomaticEnv only
// resolves keys viper already knows, so this is also what makes IATFMON_*
// overrides visible to Unmarshal.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("engine.window_days", DefaultWindowDays)
	v.SetDefault("engine.timezone", DefaultTimezone)
	v.SetDefault("engine.removal_fallback", DefaultRemovalFallback)
	v.SetDefault("source.path", DefaultSourcePath)
	v.SetDefault("source.format", "")
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("watch.interval", DefaultWatchInterval)
	v.SetDefault("watch.debounce", DefaultWatchDebounce)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}
