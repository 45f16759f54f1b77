package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 3, cfg.Engine.WindowDays)
	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, "day_offset", cfg.Engine.RemovalFallback)
	assert.Equal(t, DefaultSourcePath, cfg.Source.Path)
	assert.Equal(t, 256, cfg.Cache.Size)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "iatfmon", cfg.Metrics.Namespace)
	assert.Equal(t, time.Minute, cfg.Watch.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Engine.Timezone = "America/Sao_Paulo"
	cfg.Watch.Interval = 5 * time.Second
	cfg.Log.Level = "debug"

	ApplyDefaults(cfg)

	assert.Equal(t, "America/Sao_Paulo", cfg.Engine.Timezone)
	assert.Equal(t, 5*time.Second, cfg.Watch.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0, cfg.Cache.Size, "zero cache size means disabled")
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative window", func(c *Config) { c.Engine.WindowDays = -1 }, "engine.window_days"},
		{"unknown timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, "engine.timezone"},
		{"bad fallback", func(c *Config) { c.Engine.RemovalFallback = "guess" }, "engine.removal_fallback"},
		{"bad source format", func(c *Config) { c.Source.Format = "csv" }, "source.format"},
		{"negative cache", func(c *Config) { c.Cache.Size = -5 }, "cache.size"},
		{"metrics without namespace", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Namespace = ""
		}, "metrics.namespace"},
		{"zero interval", func(c *Config) { c.Watch.Interval = 0 }, "watch.interval"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "watch.debounce"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := NewDefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
