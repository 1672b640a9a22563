package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBRADAR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBRADAR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "ARBRADAR_DATABASE_DSN")
	setStr(&cfg.Database.Host, "ARBRADAR_DATABASE_HOST")
	setInt(&cfg.Database.Port, "ARBRADAR_DATABASE_PORT")
	setStr(&cfg.Database.Database, "ARBRADAR_DATABASE_NAME")
	setStr(&cfg.Database.User, "ARBRADAR_DATABASE_USER")
	setStr(&cfg.Database.Password, "ARBRADAR_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "ARBRADAR_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "ARBRADAR_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "ARBRADAR_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "ARBRADAR_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBRADAR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBRADAR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBRADAR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBRADAR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBRADAR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBRADAR_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.StatsTTLSecs, "ARBRADAR_REDIS_STATS_TTL_SECS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBRADAR_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBRADAR_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBRADAR_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBRADAR_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBRADAR_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBRADAR_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBRADAR_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBRADAR_S3_FORCE_PATH_STYLE")

	// ── Venues ──
	setBool(&cfg.Venues.Polymarket.Enabled, "ARBRADAR_VENUES_POLYMARKET_ENABLED")
	setStr(&cfg.Venues.Polymarket.BaseURL, "ARBRADAR_VENUES_POLYMARKET_BASE_URL")
	setFloat64(&cfg.Venues.Polymarket.FeeRate, "ARBRADAR_VENUES_POLYMARKET_FEE_RATE")
	setBool(&cfg.Venues.Kalshi.Enabled, "ARBRADAR_VENUES_KALSHI_ENABLED")
	setStr(&cfg.Venues.Kalshi.BaseURL, "ARBRADAR_VENUES_KALSHI_BASE_URL")
	setFloat64(&cfg.Venues.Kalshi.FeeRate, "ARBRADAR_VENUES_KALSHI_FEE_RATE")
	setBool(&cfg.Venues.Manifold.Enabled, "ARBRADAR_VENUES_MANIFOLD_ENABLED")
	setStr(&cfg.Venues.Manifold.BaseURL, "ARBRADAR_VENUES_MANIFOLD_BASE_URL")
	setFloat64(&cfg.Venues.Manifold.FeeRate, "ARBRADAR_VENUES_MANIFOLD_FEE_RATE")
	setDuration(&cfg.Venues.FetchTimeout, "ARBRADAR_VENUES_FETCH_TIMEOUT")
	setInt(&cfg.Venues.PageSize, "ARBRADAR_VENUES_PAGE_SIZE")

	// ── Matcher ──
	setFloat64(&cfg.Matcher.Threshold, "ARBRADAR_MATCHER_THRESHOLD")
	setFloat64(&cfg.Matcher.TitleWeight, "ARBRADAR_MATCHER_TITLE_WEIGHT")
	setFloat64(&cfg.Matcher.KeyTermWeight, "ARBRADAR_MATCHER_KEY_TERM_WEIGHT")

	// ── Arbitrage ──
	setFloat64(&cfg.Arb.MinNetSpreadPct, "ARBRADAR_ARBITRAGE_MIN_NET_SPREAD_PCT")
	setFloat64(&cfg.Arb.MinLiquidityUSD, "ARBRADAR_ARBITRAGE_MIN_LIQUIDITY_USD")
	setFloat64(&cfg.Arb.NotifyMinSpreadPct, "ARBRADAR_ARBITRAGE_NOTIFY_MIN_SPREAD_PCT")

	// ── Sync ──
	setDuration(&cfg.Sync.Interval, "ARBRADAR_SYNC_INTERVAL")
	setDuration(&cfg.Sync.InitialDelay, "ARBRADAR_SYNC_INITIAL_DELAY")
	setDuration(&cfg.Sync.StaleAfter, "ARBRADAR_SYNC_STALE_AFTER")
	setDuration(&cfg.Sync.RefreshAfter, "ARBRADAR_SYNC_REFRESH_AFTER")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBRADAR_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBRADAR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBRADAR_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBRADAR_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBRADAR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBRADAR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBRADAR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBRADAR_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBRADAR_MODE")
	setStr(&cfg.LogLevel, "ARBRADAR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
