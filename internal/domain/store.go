package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// OpportunityFilter narrows opportunity reads on the query side.
type OpportunityFilter struct {
	MinNetSpreadPct float64
	MinLiquidity    float64
	Category        Category
	Limit           int
}

// VenueStore persists venue records.
type VenueStore interface {
	// FindOrCreate resolves a venue by slug, inserting it when missing, and
	// returns the stored record.
	FindOrCreate(ctx context.Context, v Venue) (Venue, error)
	GetBySlug(ctx context.Context, slug string) (Venue, error)
	List(ctx context.Context) ([]Venue, error)
	Count(ctx context.Context) (int64, error)
}

// MarketStore persists normalized markets keyed by (venue_id, external_id).
type MarketStore interface {
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	ListActive(ctx context.Context, opts ListOpts) ([]Market, error)
	// CloseStale marks markets not refreshed since cutoff as closed and
	// returns how many rows changed.
	CloseStale(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// MarketPairStore persists cross-venue market pairs. Implementations must
// treat (market_a_id, market_b_id) as the natural key; callers store IDs in
// canonical order (see CanonicalPairKey).
type MarketPairStore interface {
	UpsertBatch(ctx context.Context, pairs []MarketPair) error
	GetByID(ctx context.Context, id string) (MarketPair, error)
	List(ctx context.Context, opts ListOpts) ([]MarketPair, error)
	// PruneAutomatic deletes non-override pairs referencing markets that are
	// no longer active and returns how many rows were removed.
	PruneAutomatic(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists derived arbitrage opportunities.
type OpportunityStore interface {
	// ReplaceActive atomically deletes the current active set and inserts the
	// freshly computed one. Readers observe either the old or the new set.
	ReplaceActive(ctx context.Context, opps []ArbitrageOpportunity) error
	List(ctx context.Context, filter OpportunityFilter) ([]ArbitrageOpportunity, error)
	CountActive(ctx context.Context) (int64, error)
	// Stats runs the aggregation query backing the status facade.
	Stats(ctx context.Context) (MarketStats, error)
}

// Stores bundles every persistence interface the engine depends on.
type Stores struct {
	Venues        VenueStore
	Markets       MarketStore
	Pairs         MarketPairStore
	Opportunities OpportunityStore
}
