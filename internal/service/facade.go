// Package service exposes the read-side facade consumed by the HTTP server
// and websocket hub. Raw internal errors never cross this boundary; callers
// get coarse health states and human-readable error strings.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/pipeline"
)

// listScanLimit bounds the full-set scans behind quality validation.
const listScanLimit = 50000

// Facade is the engine's status/query surface.
type Facade struct {
	syncer       *pipeline.Syncer
	stores       domain.Stores
	cache        domain.StatsCache // optional
	bus          domain.SignalBus  // optional
	staleAfter   time.Duration
	refreshAfter time.Duration
	logger       *slog.Logger

	mu          sync.RWMutex
	initialized bool
	lastErr     string
}

// New creates a Facade. The cache and bus may be nil; stats then always hit
// the aggregation query and Subscribe returns an error. staleAfter drives
// market cleanup and health derivation; refreshAfter is the tighter window
// after which a read triggers a synchronous sync.
func New(
	syncer *pipeline.Syncer,
	stores domain.Stores,
	cache domain.StatsCache,
	bus domain.SignalBus,
	staleAfter time.Duration,
	refreshAfter time.Duration,
	logger *slog.Logger,
) *Facade {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	if refreshAfter <= 0 {
		refreshAfter = 5 * time.Minute
	}
	return &Facade{
		syncer:       syncer,
		stores:       stores,
		cache:        cache,
		bus:          bus,
		staleAfter:   staleAfter,
		refreshAfter: refreshAfter,
		logger:       logger.With(slog.String("component", "facade")),
	}
}

// Initialize runs the first sync cycle so the stores are populated before
// the facade starts answering queries. Idempotent.
func (f *Facade) Initialize(ctx context.Context) error {
	f.mu.RLock()
	done := f.initialized
	f.mu.RUnlock()
	if done {
		return nil
	}

	if _, err := f.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrSyncRunning) {
		return fmt.Errorf("service: initialize: %w", err)
	}

	f.mu.Lock()
	f.initialized = true
	f.mu.Unlock()
	return nil
}

// Refresh triggers a synchronous sync cycle. Returns domain.ErrSyncRunning
// when one is already in flight.
func (f *Facade) Refresh(ctx context.Context) (pipeline.CycleResult, error) {
	result, err := f.syncer.RunCycle(ctx)

	f.mu.Lock()
	if err != nil && !errors.Is(err, domain.ErrSyncRunning) {
		f.lastErr = "last sync failed: " + err.Error()
	} else if err == nil {
		f.lastErr = ""
	}
	f.mu.Unlock()

	return result, err
}

// GetStats returns the aggregate snapshot, reading through the cache when
// one is configured.
func (f *Facade) GetStats(ctx context.Context) (domain.MarketStats, error) {
	if f.cache != nil {
		if stats, err := f.cache.Get(ctx); err == nil {
			return stats, nil
		}
	}

	stats, err := f.stores.Opportunities.Stats(ctx)
	if err != nil {
		return domain.MarketStats{}, fmt.Errorf("service: stats: %w", err)
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, stats); err != nil {
			f.logger.WarnContext(ctx, "stats cache set failed", slog.String("error", err.Error()))
		}
	}
	return stats, nil
}

// GetStatus derives the coarse health state from data presence and
// freshness:
//
//	critical - not initialized, or the stats query itself fails
//	error    - no venues, or the last sync failed
//	warning  - no active markets, or data older than the staleness window
//	healthy  - otherwise
func (f *Facade) GetStatus(ctx context.Context) domain.Status {
	f.mu.RLock()
	initialized := f.initialized
	lastErr := f.lastErr
	f.mu.RUnlock()

	status := domain.Status{LastUpdate: time.Now().UTC(), Error: lastErr}

	stats, err := f.GetStats(ctx)
	if err != nil {
		status.Health = domain.HealthCritical
		status.Error = "stats unavailable"
		return status
	}
	status.Stats = stats

	switch {
	case !initialized:
		status.Health = domain.HealthCritical
	case stats.Venues == 0 || lastErr != "":
		status.Health = domain.HealthError
	case stats.ActiveMarkets == 0 || time.Since(stats.LastSyncAt) > f.staleAfter:
		status.Health = domain.HealthWarning
	default:
		status.Health = domain.HealthHealthy
	}
	return status
}

// GetOpportunities returns active opportunities matching the filter. When
// the last cycle is older than the refresh window it first runs a
// synchronous sync; a refresh already in flight is not waited for.
func (f *Facade) GetOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.ArbitrageOpportunity, error) {
	if last := f.syncer.LastSync(); last.IsZero() || time.Since(last) > f.refreshAfter {
		if _, err := f.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrSyncRunning) {
			f.logger.WarnContext(ctx, "staleness refresh failed", slog.String("error", err.Error()))
		}
	}

	opps, err := f.stores.Opportunities.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: list opportunities: %w", err)
	}
	return opps, nil
}

// GetMarkets returns the active market set.
func (f *Facade) GetMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := f.stores.Markets.ListActive(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service: list markets: %w", err)
	}
	return markets, nil
}

// ValidateQuality scans the persisted sets for consistency problems: stale
// active markets, pairs referencing missing markets, same-venue pairs, and
// opportunities whose numbers violate the calculator's own invariants.
func (f *Facade) ValidateQuality(ctx context.Context) (domain.QualityReport, error) {
	var report domain.QualityReport

	markets, err := f.stores.Markets.ListActive(ctx, domain.ListOpts{Limit: listScanLimit})
	if err != nil {
		return report, fmt.Errorf("service: quality scan markets: %w", err)
	}
	byID := make(map[string]domain.Market, len(markets))
	staleCutoff := time.Now().UTC().Add(-f.staleAfter)
	for _, m := range markets {
		byID[m.ID] = m
		if m.LastUpdated.Before(staleCutoff) {
			report.StaleMarkets++
		}
	}
	report.CheckedMarkets = int64(len(markets))

	pairs, err := f.stores.Pairs.List(ctx, domain.ListOpts{Limit: listScanLimit})
	if err != nil {
		return report, fmt.Errorf("service: quality scan pairs: %w", err)
	}
	for _, p := range pairs {
		a, okA := byID[p.MarketAID]
		b, okB := byID[p.MarketBID]
		if !okA || !okB {
			report.OrphanPairs++
			continue
		}
		if a.VenueID == b.VenueID {
			report.SameVenuePairs++
		}
	}
	report.CheckedPairs = int64(len(pairs))

	opps, err := f.stores.Opportunities.List(ctx, domain.OpportunityFilter{})
	if err != nil {
		return report, fmt.Errorf("service: quality scan opportunities: %w", err)
	}
	for _, o := range opps {
		if o.NetSpreadPct > o.GrossSpreadPct || o.BuyPrice <= 0 || o.BuyPrice >= 1 {
			report.InvalidSpreads++
		}
	}
	report.CheckedOpportuns = int64(len(opps))

	if report.StaleMarkets > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d active markets not refreshed within %s", report.StaleMarkets, f.staleAfter))
	}
	if report.OrphanPairs > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d pairs reference missing or inactive markets", report.OrphanPairs))
	}
	if report.SameVenuePairs > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d pairs link markets on the same venue", report.SameVenuePairs))
	}
	if report.InvalidSpreads > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d opportunities carry invalid spreads or prices", report.InvalidSpreads))
	}
	return report, nil
}

// PerformMaintenance closes stale markets, prunes dead pairs, re-syncs, and
// returns before/after stats.
func (f *Facade) PerformMaintenance(ctx context.Context) (domain.MaintenanceReport, error) {
	var report domain.MaintenanceReport

	before, err := f.stores.Opportunities.Stats(ctx)
	if err != nil {
		return report, fmt.Errorf("service: maintenance before-stats: %w", err)
	}
	report.Before = before

	closed, pruned, err := f.syncer.CleanupStale(ctx)
	if err != nil {
		return report, fmt.Errorf("service: maintenance cleanup: %w", err)
	}
	report.ClosedMarkets = closed
	report.PrunedPairs = pruned

	if _, err := f.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrSyncRunning) {
		return report, fmt.Errorf("service: maintenance refresh: %w", err)
	}

	after, err := f.stores.Opportunities.Stats(ctx)
	if err != nil {
		return report, fmt.Errorf("service: maintenance after-stats: %w", err)
	}
	report.After = after

	if f.cache != nil {
		_ = f.cache.Invalidate(ctx)
	}
	return report, nil
}

// Subscribe forwards the engine's change feed for the given channel and
// returns the payload stream plus an unsubscribe function.
func (f *Facade) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	if f.bus == nil {
		return nil, nil, fmt.Errorf("service: subscribe: no signal bus configured")
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := f.bus.Subscribe(subCtx, channel)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("service: subscribe %s: %w", channel, err)
	}
	return ch, cancel, nil
}
