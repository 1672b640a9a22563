package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, 0.7, cfg.Matcher.Threshold)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Sync.StaleAfter.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Sync.RefreshAfter.Duration)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "serve"
log_level = "debug"

[sync]
interval = "5m"
stale_after = "1h"

[venues.kalshi]
enabled = false

[arbitrage]
min_net_spread_pct = 2.5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval.Duration)
	assert.Equal(t, time.Hour, cfg.Sync.StaleAfter.Duration)
	assert.False(t, cfg.Venues.Kalshi.Enabled)
	assert.Equal(t, 2.5, cfg.Arb.MinNetSpreadPct)

	// Untouched sections keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Sync.InitialDelay.Duration)
	assert.True(t, cfg.Venues.Polymarket.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`mode = "sync"`), 0o600))

	t.Setenv("ARBRADAR_MODE", "serve")
	t.Setenv("ARBRADAR_DATABASE_PASSWORD", "sekret")
	t.Setenv("ARBRADAR_SYNC_INTERVAL", "90s")
	t.Setenv("ARBRADAR_VENUES_MANIFOLD_ENABLED", "false")
	t.Setenv("ARBRADAR_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "sekret", cfg.Database.Password)
	assert.Equal(t, 90*time.Second, cfg.Sync.Interval.Duration)
	assert.False(t, cfg.Venues.Manifold.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidate_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "daemon" }},
		{"threshold out of range", func(c *Config) { c.Matcher.Threshold = 1.5 }},
		{"no venues enabled", func(c *Config) {
			c.Venues.Polymarket.Enabled = false
			c.Venues.Kalshi.Enabled = false
			c.Venues.Manifold.Enabled = false
		}},
		{"enabled venue without base url", func(c *Config) { c.Venues.Polymarket.BaseURL = "" }},
		{"fee rate out of range", func(c *Config) { c.Venues.Kalshi.FeeRate = 1.0 }},
		{"zero sync interval", func(c *Config) { c.Sync.Interval.Duration = 0 }},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("2m30s")))
	assert.Equal(t, 150*time.Second, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2m30s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("not a duration")))
}
