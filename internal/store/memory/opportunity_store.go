package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/arbradar/arbradar/internal/domain"
)

// OpportunityStore is an in-memory implementation of domain.OpportunityStore.
// It reads through the sibling stores for category filtering and the stats
// aggregation.
type OpportunityStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.ArbitrageOpportunity
	venues  *VenueStore
	markets *MarketStore
	pairs   *PairStore
}

// NewOpportunityStore creates an empty in-memory opportunity store.
func NewOpportunityStore(venues *VenueStore, markets *MarketStore, pairs *PairStore) *OpportunityStore {
	return &OpportunityStore{
		byID:    make(map[string]domain.ArbitrageOpportunity),
		venues:  venues,
		markets: markets,
		pairs:   pairs,
	}
}

// ReplaceActive drops the current active set and installs the new one under
// a single lock acquisition.
func (s *OpportunityStore) ReplaceActive(_ context.Context, opps []domain.ArbitrageOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, o := range s.byID {
		if o.Status == domain.OpportunityStatusActive {
			delete(s.byID, id)
		}
	}
	for _, o := range opps {
		s.byID[o.ID] = o
	}
	return nil
}

// List returns active opportunities matching the filter, best spread first.
func (s *OpportunityStore) List(ctx context.Context, filter domain.OpportunityFilter) ([]domain.ArbitrageOpportunity, error) {
	s.mu.RLock()
	var out []domain.ArbitrageOpportunity
	for _, o := range s.byID {
		if o.Status == domain.OpportunityStatusActive {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()

	filtered := out[:0]
	for _, o := range out {
		if filter.MinNetSpreadPct > 0 && o.NetSpreadPct < filter.MinNetSpreadPct {
			continue
		}
		if filter.MinLiquidity > 0 && o.MaxTradableAmount < filter.MinLiquidity {
			continue
		}
		if filter.Category != "" {
			cat, err := s.pairCategory(ctx, o.PairID)
			if err != nil || cat != filter.Category {
				continue
			}
		}
		filtered = append(filtered, o)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].NetSpreadPct > filtered[j].NetSpreadPct
	})
	if filter.Limit > 0 && filter.Limit < len(filtered) {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

// pairCategory resolves the category of a pair through its first market.
func (s *OpportunityStore) pairCategory(ctx context.Context, pairID string) (domain.Category, error) {
	p, err := s.pairs.GetByID(ctx, pairID)
	if err != nil {
		return "", err
	}
	m, err := s.markets.GetByID(ctx, p.MarketAID)
	if err != nil {
		return "", err
	}
	return m.Category, nil
}

func (s *OpportunityStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, o := range s.byID {
		if o.Status == domain.OpportunityStatusActive {
			n++
		}
	}
	return n, nil
}

// Stats aggregates counts, the mean active net spread, the active volume
// sum, and the freshest market update across the sibling stores.
func (s *OpportunityStore) Stats(ctx context.Context) (domain.MarketStats, error) {
	var stats domain.MarketStats

	var err error
	if stats.Venues, err = s.venues.Count(ctx); err != nil {
		return domain.MarketStats{}, err
	}
	if stats.ActiveMarkets, err = s.markets.CountActive(ctx); err != nil {
		return domain.MarketStats{}, err
	}
	if stats.MarketPairs, err = s.pairs.Count(ctx); err != nil {
		return domain.MarketStats{}, err
	}

	s.mu.RLock()
	var spreadSum float64
	for _, o := range s.byID {
		if o.Status == domain.OpportunityStatusActive {
			stats.ActiveOpportunities++
			spreadSum += o.NetSpreadPct
		}
	}
	s.mu.RUnlock()
	if stats.ActiveOpportunities > 0 {
		stats.AvgNetSpreadPct = spreadSum / float64(stats.ActiveOpportunities)
	}

	s.markets.mu.RLock()
	for _, m := range s.markets.byID {
		if m.Status == domain.MarketStatusActive {
			stats.TotalVolume24h += m.Volume24h
		}
		if m.LastUpdated.After(stats.LastSyncAt) {
			stats.LastSyncAt = m.LastUpdated
		}
	}
	s.markets.mu.RUnlock()

	return stats, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
