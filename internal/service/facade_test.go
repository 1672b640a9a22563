package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/calculator"
	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/matcher"
	"github.com/arbradar/arbradar/internal/pipeline"
	"github.com/arbradar/arbradar/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFacade(t *testing.T, stores domain.Stores) *Facade {
	t.Helper()
	return New(newTestSyncer(stores), stores, nil, nil, 30*time.Minute, 5*time.Minute, testLogger())
}

func newTestSyncer(stores domain.Stores) *pipeline.Syncer {
	logger := testLogger()
	return pipeline.New(nil, stores,
		matcher.New(matcher.Config{}, logger),
		calculator.New(calculator.Config{}, logger),
		nil, nil, nil, nil,
		pipeline.Config{}, logger)
}

func seedVenueAndMarket(t *testing.T, stores domain.Stores) {
	t.Helper()
	ctx := context.Background()
	_, err := stores.Venues.FindOrCreate(ctx, domain.Venue{Slug: "polymarket", Name: "Polymarket"})
	require.NoError(t, err)
	require.NoError(t, stores.Markets.UpsertBatch(ctx, []domain.Market{{
		VenueID:     "v1",
		ExternalID:  "ext-1",
		Title:       "Trump wins 2024",
		Status:      domain.MarketStatusActive,
		LastUpdated: time.Now().UTC(),
	}}))
}

func TestFacade_StatusBeforeInitializeIsCritical(t *testing.T) {
	f := newTestFacade(t, memory.NewStores())

	status := f.GetStatus(context.Background())
	assert.Equal(t, domain.HealthCritical, status.Health)
}

func TestFacade_StatusErrorWithoutVenues(t *testing.T) {
	f := newTestFacade(t, memory.NewStores())
	require.NoError(t, f.Initialize(context.Background()))

	status := f.GetStatus(context.Background())
	assert.Equal(t, domain.HealthError, status.Health)
}

func TestFacade_StatusWarningWithoutActiveMarkets(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)
	require.NoError(t, f.Initialize(context.Background()))

	_, err := stores.Venues.FindOrCreate(context.Background(), domain.Venue{Slug: "polymarket"})
	require.NoError(t, err)

	status := f.GetStatus(context.Background())
	assert.Equal(t, domain.HealthWarning, status.Health)
}

func TestFacade_StatusHealthyWithFreshData(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)
	require.NoError(t, f.Initialize(context.Background()))
	seedVenueAndMarket(t, stores)

	status := f.GetStatus(context.Background())
	assert.Equal(t, domain.HealthHealthy, status.Health)
	assert.EqualValues(t, 1, status.Stats.Venues)
	assert.EqualValues(t, 1, status.Stats.ActiveMarkets)
}

func TestFacade_StatusWarningWhenDataStale(t *testing.T) {
	stores := memory.NewStores()
	logger := testLogger()
	syncer := pipeline.New(nil, stores,
		matcher.New(matcher.Config{}, logger),
		calculator.New(calculator.Config{}, logger),
		nil, nil, nil, nil, pipeline.Config{}, logger)
	f := New(syncer, stores, nil, nil, time.Minute, time.Minute, logger)
	require.NoError(t, f.Initialize(context.Background()))

	ctx := context.Background()
	_, err := stores.Venues.FindOrCreate(ctx, domain.Venue{Slug: "polymarket"})
	require.NoError(t, err)
	require.NoError(t, stores.Markets.UpsertBatch(ctx, []domain.Market{{
		VenueID:     "v1",
		ExternalID:  "ext-1",
		Status:      domain.MarketStatusActive,
		LastUpdated: time.Now().UTC().Add(-time.Hour),
	}}))

	status := f.GetStatus(ctx)
	assert.Equal(t, domain.HealthWarning, status.Health)
}

func TestFacade_GetMarkets(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)
	seedVenueAndMarket(t, stores)

	markets, err := f.GetMarkets(context.Background(), domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, markets, 1)
}

func TestFacade_GetOpportunitiesRefreshesStaleData(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)

	// No sync has ever run, so the read triggers one; with no adapters the
	// cycle completes empty and the query returns no rows rather than erroring.
	opps, err := f.GetOpportunities(context.Background(), domain.OpportunityFilter{})
	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.False(t, f.syncer.LastSync().IsZero(), "staleness refresh ran a cycle")
}

func TestFacade_RefreshWindowDefaultsToFiveMinutes(t *testing.T) {
	stores := memory.NewStores()
	f := New(newTestSyncer(stores), stores, nil, nil, 0, 0, testLogger())

	assert.Equal(t, 5*time.Minute, f.refreshAfter)
	assert.Equal(t, 30*time.Minute, f.staleAfter)
}

func TestFacade_GetOpportunitiesHonorsRefreshWindow(t *testing.T) {
	stores := memory.NewStores()
	syncer := newTestSyncer(stores)
	ctx := context.Background()

	_, err := syncer.RunCycle(ctx)
	require.NoError(t, err)
	require.NoError(t, stores.Opportunities.ReplaceActive(ctx, []domain.ArbitrageOpportunity{{
		ID:           "o1",
		PairID:       "p1",
		NetSpreadPct: 3.0,
		Status:       domain.OpportunityStatusActive,
	}}))

	// Within the window the read serves the stored set untouched.
	fresh := New(syncer, stores, nil, nil, 30*time.Minute, time.Hour, testLogger())
	opps, err := fresh.GetOpportunities(ctx, domain.OpportunityFilter{})
	require.NoError(t, err)
	assert.Len(t, opps, 1)

	// Past the window the read runs a cycle first; with no adapters that
	// replaces the active set with an empty one.
	stale := New(syncer, stores, nil, nil, 30*time.Minute, time.Nanosecond, testLogger())
	opps, err = stale.GetOpportunities(ctx, domain.OpportunityFilter{})
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestFacade_ValidateQuality(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, stores.Markets.UpsertBatch(ctx, []domain.Market{
		{ID: "m1", VenueID: "v1", ExternalID: "1", Status: domain.MarketStatusActive, LastUpdated: now},
		{ID: "m2", VenueID: "v1", ExternalID: "2", Status: domain.MarketStatusActive, LastUpdated: now.Add(-2 * time.Hour)},
	}))
	require.NoError(t, stores.Pairs.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2"}, // same venue
		{MarketAID: "m1", MarketBID: "gone"},
	}))

	report, err := f.ValidateQuality(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.StaleMarkets)
	assert.EqualValues(t, 1, report.OrphanPairs)
	assert.EqualValues(t, 1, report.SameVenuePairs)
	assert.EqualValues(t, 2, report.CheckedMarkets)
	assert.EqualValues(t, 2, report.CheckedPairs)
	assert.Len(t, report.Issues, 3)
}

func TestFacade_PerformMaintenance(t *testing.T) {
	stores := memory.NewStores()
	f := newTestFacade(t, stores)
	ctx := context.Background()

	require.NoError(t, stores.Markets.UpsertBatch(ctx, []domain.Market{
		{ID: "m1", VenueID: "v1", ExternalID: "1", Status: domain.MarketStatusActive, LastUpdated: time.Now().UTC().Add(-2 * time.Hour)},
	}))

	report, err := f.PerformMaintenance(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.ClosedMarkets)
	assert.EqualValues(t, 1, report.Before.ActiveMarkets)
	assert.EqualValues(t, 0, report.After.ActiveMarkets)
}

func TestFacade_SubscribeWithoutBusFails(t *testing.T) {
	f := newTestFacade(t, memory.NewStores())
	_, _, err := f.Subscribe(context.Background(), domain.ChannelSync)
	assert.Error(t, err)
}
