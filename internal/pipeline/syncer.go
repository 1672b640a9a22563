// Package pipeline runs the sync cycle: fetch markets from every enabled
// venue, persist them, match cross-venue pairs, compute arbitrage
// opportunities, and fan the results out to the signal bus, notifier, and
// cold storage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbradar/arbradar/internal/calculator"
	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/matcher"
	"github.com/arbradar/arbradar/internal/notify"
	"github.com/arbradar/arbradar/internal/venue"
)

// activeMarketFetchLimit bounds the reload of the active market set after an
// upsert. Venue page sizes keep real counts far below this.
const activeMarketFetchLimit = 50000

// Config holds the syncer schedule and alerting threshold.
type Config struct {
	Interval           time.Duration // time between cycles, default 2m
	InitialDelay       time.Duration // delay before the first cycle, default 10s
	StaleAfter         time.Duration // markets older than this are closed, default 30m
	NotifyMinSpreadPct float64       // net spread that triggers an alert; 0 disables
}

// CycleResult summarizes one completed sync cycle.
type CycleResult struct {
	Markets       int
	Pairs         int
	Opportunities int
	Duration      time.Duration
	SyncedAt      time.Time
}

// syncEvent is the JSON payload published on the signal bus after a cycle.
type syncEvent struct {
	Event         string    `json:"event"`
	SyncedAt      time.Time `json:"synced_at"`
	Markets       int       `json:"markets"`
	Pairs         int       `json:"pairs"`
	Opportunities int       `json:"opportunities"`
}

// Syncer orchestrates the fetch -> match -> calculate -> persist cycle. At
// most one cycle runs at a time: a trigger that arrives while a cycle is in
// flight is rejected with domain.ErrSyncRunning rather than queued, since the
// running cycle already produces the freshest possible data.
type Syncer struct {
	adapters []venue.Adapter
	stores   domain.Stores
	matcher  *matcher.Matcher
	calc     *calculator.Calculator
	bus      domain.SignalBus  // optional
	cache    domain.StatsCache // optional
	archiver domain.Archiver   // optional
	notifier *notify.Notifier  // optional
	cfg      Config
	logger   *slog.Logger

	running  atomic.Bool
	lastSync atomic.Pointer[time.Time]
}

// New creates a Syncer. The bus, cache, archiver, and notifier may be nil;
// the corresponding fan-out step is skipped.
func New(
	adapters []venue.Adapter,
	stores domain.Stores,
	m *matcher.Matcher,
	calc *calculator.Calculator,
	bus domain.SignalBus,
	cache domain.StatsCache,
	archiver domain.Archiver,
	notifier *notify.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Syncer {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 10 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	return &Syncer{
		adapters: adapters,
		stores:   stores,
		matcher:  m,
		calc:     calc,
		bus:      bus,
		cache:    cache,
		archiver: archiver,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "syncer")),
	}
}

// LastSync returns the completion time of the most recent successful cycle,
// or the zero time if none has completed yet.
func (s *Syncer) LastSync() time.Time {
	if t := s.lastSync.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Running reports whether a cycle is currently in flight.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// RunCycle executes one full sync cycle. It returns domain.ErrSyncRunning
// when a cycle is already in flight.
func (s *Syncer) RunCycle(ctx context.Context) (CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return CycleResult{}, domain.ErrSyncRunning
	}
	defer s.running.Store(false)

	start := time.Now().UTC()
	s.logger.InfoContext(ctx, "sync cycle starting")

	markets := s.fetchAll(ctx)
	if err := s.stores.Markets.UpsertBatch(ctx, markets); err != nil {
		return CycleResult{}, fmt.Errorf("pipeline: upsert markets: %w", err)
	}

	// Reload so every market carries its persisted ID, including markets
	// from venues that failed this cycle but are still fresh in the store.
	active, err := s.stores.Markets.ListActive(ctx, domain.ListOpts{Limit: activeMarketFetchLimit})
	if err != nil {
		return CycleResult{}, fmt.Errorf("pipeline: list active markets: %w", err)
	}

	candidates := s.matcher.FindMarketPairs(active)
	pairs := make([]domain.MarketPair, 0, len(candidates))
	for _, c := range candidates {
		pairs = append(pairs, domain.MarketPair{
			MarketAID:       c.MarketA.ID,
			MarketBID:       c.MarketB.ID,
			ConfidenceScore: c.Confidence,
		})
	}
	if err := s.stores.Pairs.UpsertBatch(ctx, pairs); err != nil {
		return CycleResult{}, fmt.Errorf("pipeline: upsert pairs: %w", err)
	}

	joined, err := s.joinPairs(ctx, active)
	if err != nil {
		return CycleResult{}, err
	}

	opps := s.calc.Calculate(joined)
	if err := s.stores.Opportunities.ReplaceActive(ctx, opps); err != nil {
		return CycleResult{}, fmt.Errorf("pipeline: replace opportunities: %w", err)
	}

	syncedAt := time.Now().UTC()
	s.lastSync.Store(&syncedAt)

	result := CycleResult{
		Markets:       len(markets),
		Pairs:         len(joined),
		Opportunities: len(opps),
		Duration:      syncedAt.Sub(start),
		SyncedAt:      syncedAt,
	}

	s.fanOut(ctx, result, opps)

	s.logger.InfoContext(ctx, "sync cycle complete",
		slog.Int("markets", result.Markets),
		slog.Int("pairs", result.Pairs),
		slog.Int("opportunities", result.Opportunities),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// fetchAll initializes every adapter and fetches markets from all of them
// concurrently. A venue that fails to initialize or fetch contributes
// nothing this cycle without affecting the others.
func (s *Syncer) fetchAll(ctx context.Context) []domain.Market {
	var (
		mu      sync.Mutex
		markets []domain.Market
	)
	g, gctx := errgroup.WithContext(ctx)

	for _, a := range s.adapters {
		a := a
		g.Go(func() error {
			if _, err := a.Initialize(gctx); err != nil {
				s.logger.ErrorContext(gctx, "venue initialize failed",
					slog.String("venue", a.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			fetched := a.FetchMarkets(gctx)
			mu.Lock()
			markets = append(markets, fetched...)
			mu.Unlock()
			s.logger.InfoContext(gctx, "venue fetched",
				slog.String("venue", a.Name()),
				slog.Int("markets", len(fetched)),
			)
			return nil
		})
	}
	_ = g.Wait()
	return markets
}

// joinPairs loads the persisted pairs and resolves each to its two markets
// plus the venue fee rates. Pairs whose markets dropped out of the active
// set are skipped.
func (s *Syncer) joinPairs(ctx context.Context, active []domain.Market) ([]calculator.PairMarkets, error) {
	byID := make(map[string]domain.Market, len(active))
	for _, m := range active {
		byID[m.ID] = m
	}

	venues, err := s.stores.Venues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list venues: %w", err)
	}
	feeByVenue := make(map[string]float64, len(venues))
	for _, v := range venues {
		feeByVenue[v.ID] = v.FeeRate
	}

	stored, err := s.stores.Pairs.List(ctx, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("pipeline: list pairs: %w", err)
	}

	joined := make([]calculator.PairMarkets, 0, len(stored))
	for _, p := range stored {
		a, okA := byID[p.MarketAID]
		b, okB := byID[p.MarketBID]
		if !okA || !okB {
			continue
		}
		joined = append(joined, calculator.PairMarkets{
			Pair:     p,
			MarketA:  a,
			MarketB:  b,
			FeeRateA: feeByVenue[a.VenueID],
			FeeRateB: feeByVenue[b.VenueID],
		})
	}
	return joined, nil
}

// fanOut pushes the cycle result to the cache, bus, notifier, and archiver.
// Every step is best-effort; failures are logged and never fail the cycle.
func (s *Syncer) fanOut(ctx context.Context, result CycleResult, opps []domain.ArbitrageOpportunity) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "stats cache invalidate failed", slog.String("error", err.Error()))
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(syncEvent{
			Event:         "sync_complete",
			SyncedAt:      result.SyncedAt,
			Markets:       result.Markets,
			Pairs:         result.Pairs,
			Opportunities: result.Opportunities,
		})
		if err == nil {
			for _, ch := range []string{domain.ChannelSync, domain.ChannelMarkets, domain.ChannelOpportunities} {
				if err := s.bus.Publish(ctx, ch, payload); err != nil {
					s.logger.WarnContext(ctx, "bus publish failed",
						slog.String("channel", ch),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}

	if s.notifier != nil && s.cfg.NotifyMinSpreadPct > 0 {
		s.notifyHighSpreads(ctx, opps)
	}

	if s.archiver != nil {
		snapshot := domain.CycleSnapshot{
			SyncedAt:      result.SyncedAt.Format(time.RFC3339),
			MarketCount:   result.Markets,
			PairCount:     result.Pairs,
			Opportunities: opps,
		}
		if err := s.archiver.ArchiveCycle(ctx, snapshot); err != nil {
			s.logger.WarnContext(ctx, "cycle archive failed", slog.String("error", err.Error()))
		}
	}
}

// notifyHighSpreads alerts on opportunities whose net spread clears the
// configured threshold. Opportunities arrive sorted best-first, so the loop
// stops at the first one below it.
func (s *Syncer) notifyHighSpreads(ctx context.Context, opps []domain.ArbitrageOpportunity) {
	names := s.venueNames(ctx)
	for _, o := range opps {
		if o.NetSpreadPct < s.cfg.NotifyMinSpreadPct {
			break
		}
		title, message := notify.FormatOpportunity(o, names[o.BuyVenueID], names[o.SellVenueID])
		if err := s.notifier.Notify(ctx, notify.EventOpportunity, title, message); err != nil {
			s.logger.WarnContext(ctx, "opportunity alert failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Syncer) venueNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	venues, err := s.stores.Venues.List(ctx)
	if err != nil {
		return names
	}
	for _, v := range venues {
		names[v.ID] = v.Name
	}
	return names
}

// RunLoop runs cycles on the configured schedule until ctx is cancelled.
// The first cycle fires after InitialDelay rather than immediately so the
// process finishes wiring (server startup, migrations) first.
func (s *Syncer) RunLoop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync loop starting",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("initial_delay", s.cfg.InitialDelay),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.InitialDelay):
	}

	if _, err := s.RunCycle(ctx); err != nil {
		s.handleCycleError(ctx, err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunCycle(ctx); err != nil {
				s.handleCycleError(ctx, err)
			}
		}
	}
}

func (s *Syncer) handleCycleError(ctx context.Context, err error) {
	if err == domain.ErrSyncRunning || ctx.Err() != nil {
		return
	}
	s.logger.ErrorContext(ctx, "sync cycle failed", slog.String("error", err.Error()))
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventSyncFailed, "Sync cycle failed", err.Error())
	}
}

// CleanupStale closes markets not refreshed within StaleAfter and prunes
// automatic pairs left pointing at inactive markets. It returns the number
// of closed markets and pruned pairs.
func (s *Syncer) CleanupStale(ctx context.Context) (int64, int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)

	closed, err := s.stores.Markets.CloseStale(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("pipeline: close stale markets: %w", err)
	}
	pruned, err := s.stores.Pairs.PruneAutomatic(ctx)
	if err != nil {
		return closed, 0, fmt.Errorf("pipeline: prune pairs: %w", err)
	}

	if closed > 0 || pruned > 0 {
		s.logger.InfoContext(ctx, "stale cleanup complete",
			slog.Int64("closed_markets", closed),
			slog.Int64("pruned_pairs", pruned),
		)
		if s.cache != nil {
			_ = s.cache.Invalidate(ctx)
		}
	}
	return closed, pruned, nil
}
