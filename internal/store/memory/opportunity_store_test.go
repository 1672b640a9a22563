package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/domain"
)

func activeOpp(id, pairID string, spread, tradable float64) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{
		ID:                id,
		PairID:            pairID,
		NetSpreadPct:      spread,
		MaxTradableAmount: tradable,
		Status:            domain.OpportunityStatusActive,
	}
}

func TestOpportunityStore_ReplaceActiveSwapsWholeSet(t *testing.T) {
	stores := NewStores()
	s := stores.Opportunities.(*OpportunityStore)
	ctx := context.Background()

	require.NoError(t, s.ReplaceActive(ctx, []domain.ArbitrageOpportunity{
		activeOpp("o1", "p1", 2.0, 1000),
		activeOpp("o2", "p2", 3.0, 1000),
	}))
	require.NoError(t, s.ReplaceActive(ctx, []domain.ArbitrageOpportunity{
		activeOpp("o3", "p3", 4.0, 1000),
	}))

	n, err := s.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	opps, err := s.List(ctx, domain.OpportunityFilter{})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "o3", opps[0].ID)
}

func TestOpportunityStore_ListFiltersAndSorts(t *testing.T) {
	stores := NewStores()
	s := stores.Opportunities.(*OpportunityStore)
	ctx := context.Background()

	require.NoError(t, s.ReplaceActive(ctx, []domain.ArbitrageOpportunity{
		activeOpp("small", "p1", 1.2, 2000),
		activeOpp("big", "p2", 6.0, 2000),
		activeOpp("thin", "p3", 9.0, 100),
	}))

	opps, err := s.List(ctx, domain.OpportunityFilter{MinNetSpreadPct: 2.0, MinLiquidity: 500})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "big", opps[0].ID)

	all, err := s.List(ctx, domain.OpportunityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "thin", all[0].ID, "sorted by net spread descending")
	assert.Equal(t, "big", all[1].ID)
	assert.Equal(t, "small", all[2].ID)

	limited, err := s.List(ctx, domain.OpportunityFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestOpportunityStore_ListCategoryFilter(t *testing.T) {
	stores := NewStores()
	markets := stores.Markets.(*MarketStore)
	pairs := stores.Pairs.(*PairStore)
	s := stores.Opportunities.(*OpportunityStore)
	ctx := context.Background()

	require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{
		{ID: "m1", VenueID: "v1", ExternalID: "1", Category: domain.CategoryPolitics, Status: domain.MarketStatusActive},
		{ID: "m2", VenueID: "v2", ExternalID: "2", Category: domain.CategoryPolitics, Status: domain.MarketStatusActive},
		{ID: "m3", VenueID: "v1", ExternalID: "3", Category: domain.CategoryCrypto, Status: domain.MarketStatusActive},
		{ID: "m4", VenueID: "v2", ExternalID: "4", Category: domain.CategoryCrypto, Status: domain.MarketStatusActive},
	}))
	require.NoError(t, pairs.UpsertBatch(ctx, []domain.MarketPair{
		{ID: "p1", MarketAID: "m1", MarketBID: "m2"},
		{ID: "p2", MarketAID: "m3", MarketBID: "m4"},
	}))
	require.NoError(t, s.ReplaceActive(ctx, []domain.ArbitrageOpportunity{
		activeOpp("pol", "p1", 2.0, 1000),
		activeOpp("cry", "p2", 3.0, 1000),
	}))

	opps, err := s.List(ctx, domain.OpportunityFilter{Category: domain.CategoryCrypto})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "cry", opps[0].ID)
}

func TestOpportunityStore_Stats(t *testing.T) {
	stores := NewStores()
	venues := stores.Venues.(*VenueStore)
	markets := stores.Markets.(*MarketStore)
	pairs := stores.Pairs.(*PairStore)
	s := stores.Opportunities.(*OpportunityStore)
	ctx := context.Background()

	_, err := venues.FindOrCreate(ctx, domain.Venue{Slug: "polymarket"})
	require.NoError(t, err)
	_, err = venues.FindOrCreate(ctx, domain.Venue{Slug: "kalshi"})
	require.NoError(t, err)

	lastSync := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{
		{ID: "m1", VenueID: "v1", ExternalID: "1", Volume24h: 100, Status: domain.MarketStatusActive, LastUpdated: lastSync.Add(-time.Minute)},
		{ID: "m2", VenueID: "v2", ExternalID: "2", Volume24h: 250, Status: domain.MarketStatusActive, LastUpdated: lastSync},
		{ID: "m3", VenueID: "v1", ExternalID: "3", Volume24h: 999, Status: domain.MarketStatusClosed, LastUpdated: lastSync.Add(-time.Hour)},
	}))
	require.NoError(t, pairs.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2"},
	}))
	require.NoError(t, s.ReplaceActive(ctx, []domain.ArbitrageOpportunity{
		activeOpp("o1", "p1", 2.0, 1000),
		activeOpp("o2", "p1", 4.0, 1000),
	}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Venues)
	assert.EqualValues(t, 2, stats.ActiveMarkets)
	assert.EqualValues(t, 1, stats.MarketPairs)
	assert.EqualValues(t, 2, stats.ActiveOpportunities)
	assert.InDelta(t, 3.0, stats.AvgNetSpreadPct, 1e-9)
	assert.InDelta(t, 350.0, stats.TotalVolume24h, 1e-9, "closed markets excluded from volume")
	assert.Equal(t, lastSync, stats.LastSyncAt)
}
