// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBRADAR_* environment
// variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Venues   VenuesConfig   `toml:"venues"`
	Matcher  MatcherConfig  `toml:"matcher"`
	Arb      ArbConfig      `toml:"arbitrage"`
	Sync     SyncConfig     `toml:"sync"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	StatsTTLSecs int    `toml:"stats_ttl_secs"`
}

// S3Config holds S3-compatible object storage parameters for cycle archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// VenueConfig holds per-venue adapter parameters.
type VenueConfig struct {
	Enabled bool    `toml:"enabled"`
	BaseURL string  `toml:"base_url"`
	FeeRate float64 `toml:"fee_rate"` // fraction, e.g. 0.02
}

// VenuesConfig groups the adapter configuration for every supported venue.
type VenuesConfig struct {
	Polymarket   VenueConfig `toml:"polymarket"`
	Kalshi       VenueConfig `toml:"kalshi"`
	Manifold     VenueConfig `toml:"manifold"`
	FetchTimeout duration    `toml:"fetch_timeout"`
	PageSize     int         `toml:"page_size"`
}

// MatcherConfig holds the similarity matcher parameters.
type MatcherConfig struct {
	Threshold     float64 `toml:"threshold"`       // minimum similarity, 0-1
	TitleWeight   float64 `toml:"title_weight"`    // weight of title-token Jaccard
	KeyTermWeight float64 `toml:"key_term_weight"` // weight of key-term Jaccard
}

// ArbConfig holds the opportunity calculator thresholds.
type ArbConfig struct {
	MinNetSpreadPct    float64 `toml:"min_net_spread_pct"`
	MinLiquidityUSD    float64 `toml:"min_liquidity_usd"`
	NotifyMinSpreadPct float64 `toml:"notify_min_spread_pct"`
}

// SyncConfig holds the sync orchestrator schedule.
type SyncConfig struct {
	Interval     duration `toml:"interval"`
	InitialDelay duration `toml:"initial_delay"`
	StaleAfter   duration `toml:"stale_after"`
	RefreshAfter duration `toml:"refresh_after"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2m", "10s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "2m" or "10s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbradar",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     20,
			MaxRetries:   3,
			StatsTTLSecs: 300,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbradar-cycles",
			ForcePathStyle: true,
		},
		Venues: VenuesConfig{
			Polymarket: VenueConfig{
				Enabled: true,
				BaseURL: "https://gamma-api.polymarket.com",
				FeeRate: 0.02,
			},
			Kalshi: VenueConfig{
				Enabled: true,
				BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
				FeeRate: 0.02,
			},
			Manifold: VenueConfig{
				Enabled: true,
				BaseURL: "https://api.manifold.markets/v0",
				FeeRate: 0.02,
			},
			FetchTimeout: duration{10 * time.Second},
			PageSize:     100,
		},
		Matcher: MatcherConfig{
			Threshold:     0.7,
			TitleWeight:   0.7,
			KeyTermWeight: 0.3,
		},
		Arb: ArbConfig{
			MinNetSpreadPct:    1.0,
			MinLiquidityUSD:    500,
			NotifyMinSpreadPct: 5.0,
		},
		Sync: SyncConfig{
			Interval:     duration{2 * time.Minute},
			InitialDelay: duration{10 * time.Second},
			StaleAfter:   duration{30 * time.Minute},
			RefreshAfter: duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies that would prevent
// the engine from starting.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Mode) {
	case "full", "sync", "serve":
	default:
		problems = append(problems, fmt.Sprintf("unsupported mode %q", c.Mode))
	}

	if c.Matcher.Threshold <= 0 || c.Matcher.Threshold > 1 {
		problems = append(problems, "matcher.threshold must be in (0,1]")
	}
	if w := c.Matcher.TitleWeight + c.Matcher.KeyTermWeight; w <= 0 {
		problems = append(problems, "matcher weights must sum to a positive value")
	}
	if c.Arb.MinNetSpreadPct < 0 {
		problems = append(problems, "arbitrage.min_net_spread_pct must be >= 0")
	}
	if c.Arb.MinLiquidityUSD < 0 {
		problems = append(problems, "arbitrage.min_liquidity_usd must be >= 0")
	}
	if c.Sync.Interval.Duration <= 0 {
		problems = append(problems, "sync.interval must be positive")
	}
	if c.Venues.FetchTimeout.Duration <= 0 {
		problems = append(problems, "venues.fetch_timeout must be positive")
	}
	if !c.Venues.Polymarket.Enabled && !c.Venues.Kalshi.Enabled && !c.Venues.Manifold.Enabled {
		problems = append(problems, "at least one venue must be enabled")
	}
	for _, v := range []struct {
		name string
		cfg  VenueConfig
	}{
		{"polymarket", c.Venues.Polymarket},
		{"kalshi", c.Venues.Kalshi},
		{"manifold", c.Venues.Manifold},
	} {
		if v.cfg.Enabled && v.cfg.BaseURL == "" {
			problems = append(problems, fmt.Sprintf("venues.%s.base_url is required when enabled", v.name))
		}
		if v.cfg.FeeRate < 0 || v.cfg.FeeRate >= 1 {
			problems = append(problems, fmt.Sprintf("venues.%s.fee_rate must be in [0,1)", v.name))
		}
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be a valid port")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
