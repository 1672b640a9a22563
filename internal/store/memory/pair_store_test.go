package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/domain"
)

func TestPairStore_UpsertCanonicalizesOrder(t *testing.T) {
	markets := NewMarketStore()
	s := NewPairStore(markets)
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m2", MarketBID: "m1", ConfidenceScore: 80},
	}))
	// The reversed pair is the same natural key.
	require.NoError(t, s.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2", ConfidenceScore: 85},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	pairs, err := s.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "m1", pairs[0].MarketAID)
	assert.Equal(t, "m2", pairs[0].MarketBID)
	assert.Equal(t, 85, pairs[0].ConfidenceScore, "automatic pairs take the fresh score")
}

func TestPairStore_ManualOverrideSurvivesUpsert(t *testing.T) {
	s := NewPairStore(NewMarketStore())
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2", ConfidenceScore: 100, IsManualOverride: true},
	}))
	require.NoError(t, s.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2", ConfidenceScore: 60},
	}))

	pairs, err := s.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].IsManualOverride)
	assert.Equal(t, 100, pairs[0].ConfidenceScore)
}

func TestPairStore_PruneAutomatic(t *testing.T) {
	markets := NewMarketStore()
	s := NewPairStore(markets)
	ctx := context.Background()

	require.NoError(t, markets.UpsertBatch(ctx, []domain.Market{
		{ID: "m1", VenueID: "v1", ExternalID: "1", Status: domain.MarketStatusActive},
		{ID: "m2", VenueID: "v2", ExternalID: "2", Status: domain.MarketStatusActive},
		{ID: "m3", VenueID: "v1", ExternalID: "3", Status: domain.MarketStatusClosed},
	}))

	require.NoError(t, s.UpsertBatch(ctx, []domain.MarketPair{
		{MarketAID: "m1", MarketBID: "m2"},                          // both active, kept
		{MarketAID: "m1", MarketBID: "m3"},                          // references a closed market
		{MarketAID: "m1", MarketBID: "gone"},                        // references a missing market
		{MarketAID: "m2", MarketBID: "m3", IsManualOverride: true},  // override survives regardless
	}))

	pruned, err := s.PruneAutomatic(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pruned)

	pairs, err := s.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		ok := (p.MarketAID == "m1" && p.MarketBID == "m2") || p.IsManualOverride
		assert.True(t, ok, "unexpected surviving pair %s-%s", p.MarketAID, p.MarketBID)
	}
}

func TestPairStore_GetByIDNotFound(t *testing.T) {
	s := NewPairStore(NewMarketStore())
	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
