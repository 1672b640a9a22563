package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/arbradar/arbradar/internal/blob/s3"
	"github.com/arbradar/arbradar/internal/cache/redis"
	"github.com/arbradar/arbradar/internal/calculator"
	"github.com/arbradar/arbradar/internal/config"
	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/matcher"
	"github.com/arbradar/arbradar/internal/notify"
	"github.com/arbradar/arbradar/internal/pipeline"
	"github.com/arbradar/arbradar/internal/service"
	"github.com/arbradar/arbradar/internal/store/memory"
	"github.com/arbradar/arbradar/internal/store/postgres"
	"github.com/arbradar/arbradar/internal/venue"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Stores    domain.Stores
	SignalBus domain.SignalBus  // nil when redis is not configured
	Stats     domain.StatsCache // nil when redis is not configured
	Archiver  domain.Archiver   // nil when s3 is not configured
	Notifier  *notify.Notifier
	Adapters  []venue.Adapter
	Syncer    *pipeline.Syncer
	Facade    *service.Facade
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Stores: PostgreSQL when configured, in-memory otherwise ---
	if cfg.Database.DSN != "" || cfg.Database.Host != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Stores = domain.Stores{
			Venues:        postgres.NewVenueStore(pool),
			Markets:       postgres.NewMarketStore(pool),
			Pairs:         postgres.NewPairStore(pool),
			Opportunities: postgres.NewOpportunityStore(pool),
		}
	} else {
		logger.WarnContext(ctx, "no database configured, using in-memory stores")
		deps.Stores = memory.NewStores()
	}

	// --- Redis (optional: signal bus + stats cache) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Stats = redis.NewStatsCache(redisClient, time.Duration(cfg.Redis.StatsTTLSecs)*time.Second)
	}

	// --- S3 blob storage (optional: cycle snapshot archival) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Venue adapters (enabled venues only) ---
	fetchTimeout := cfg.Venues.FetchTimeout.Duration
	pageSize := cfg.Venues.PageSize
	if cfg.Venues.Polymarket.Enabled {
		deps.Adapters = append(deps.Adapters,
			venue.NewPolymarket(cfg.Venues.Polymarket, fetchTimeout, pageSize, deps.Stores.Venues, logger))
	}
	if cfg.Venues.Kalshi.Enabled {
		deps.Adapters = append(deps.Adapters,
			venue.NewKalshi(cfg.Venues.Kalshi, fetchTimeout, pageSize, deps.Stores.Venues, logger))
	}
	if cfg.Venues.Manifold.Enabled {
		deps.Adapters = append(deps.Adapters,
			venue.NewManifold(cfg.Venues.Manifold, fetchTimeout, pageSize, deps.Stores.Venues, logger))
	}

	// --- Engine ---
	m := matcher.New(matcher.Config{
		Threshold:     cfg.Matcher.Threshold,
		TitleWeight:   cfg.Matcher.TitleWeight,
		KeyTermWeight: cfg.Matcher.KeyTermWeight,
	}, logger)

	calc := calculator.New(calculator.Config{
		MinNetSpreadPct: cfg.Arb.MinNetSpreadPct,
		MinLiquidityUSD: cfg.Arb.MinLiquidityUSD,
	}, logger)

	deps.Syncer = pipeline.New(
		deps.Adapters, deps.Stores, m, calc,
		deps.SignalBus, deps.Stats, deps.Archiver, deps.Notifier,
		pipeline.Config{
			Interval:           cfg.Sync.Interval.Duration,
			InitialDelay:       cfg.Sync.InitialDelay.Duration,
			StaleAfter:         cfg.Sync.StaleAfter.Duration,
			NotifyMinSpreadPct: cfg.Arb.NotifyMinSpreadPct,
		},
		logger,
	)

	deps.Facade = service.New(
		deps.Syncer, deps.Stores, deps.Stats, deps.SignalBus,
		cfg.Sync.StaleAfter.Duration, cfg.Sync.RefreshAfter.Duration, logger,
	)

	return deps, cleanup, nil
}
