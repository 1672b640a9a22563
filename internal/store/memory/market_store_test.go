package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/domain"
)

func TestMarketStore_UpsertPreservesIdentity(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	first := domain.Market{
		VenueID:    "v1",
		ExternalID: "ext-1",
		Title:      "Trump wins 2024",
		YesPrice:   0.52,
		Status:     domain.MarketStatusActive,
	}
	require.NoError(t, s.UpsertBatch(ctx, []domain.Market{first}))

	stored, err := s.ListActive(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	id := stored[0].ID
	createdAt := stored[0].CreatedAt
	require.NotEmpty(t, id)

	// Same (venue_id, external_id) with a fresh price refreshes in place.
	second := first
	second.YesPrice = 0.55
	require.NoError(t, s.UpsertBatch(ctx, []domain.Market{second}))

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.Equal(t, 0.55, got.YesPrice)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMarketStore_SameExternalIDDifferentVenues(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []domain.Market{
		{VenueID: "v1", ExternalID: "ext", Status: domain.MarketStatusActive},
		{VenueID: "v2", ExternalID: "ext", Status: domain.MarketStatusActive},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMarketStore_GetByIDNotFound(t *testing.T) {
	s := NewMarketStore()
	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarketStore_CloseStale(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertBatch(ctx, []domain.Market{
		{VenueID: "v1", ExternalID: "fresh", Status: domain.MarketStatusActive, LastUpdated: now},
		{VenueID: "v1", ExternalID: "stale", Status: domain.MarketStatusActive, LastUpdated: now.Add(-2 * time.Hour)},
	}))

	closed, err := s.CloseStale(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, closed)

	active, err := s.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "closed markets stay stored")
}

func TestMarketStore_ListActivePagination(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []domain.Market{
		{ID: "a", VenueID: "v1", ExternalID: "1", Status: domain.MarketStatusActive},
		{ID: "b", VenueID: "v1", ExternalID: "2", Status: domain.MarketStatusActive},
		{ID: "c", VenueID: "v1", ExternalID: "3", Status: domain.MarketStatusActive},
		{ID: "d", VenueID: "v1", ExternalID: "4", Status: domain.MarketStatusClosed},
	}))

	page, err := s.ListActive(ctx, domain.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)
	assert.Equal(t, "c", page[1].ID)

	empty, err := s.ListActive(ctx, domain.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
