package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbradar/arbradar/internal/domain"
)

type pairKey struct {
	a string
	b string
}

// PairStore is an in-memory implementation of domain.MarketPairStore.
// It needs a MarketStore reference so PruneAutomatic can check whether the
// paired markets are still active.
type PairStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.MarketPair
	byKey   map[pairKey]string
	markets *MarketStore
}

// NewPairStore creates an empty in-memory pair store backed by markets.
func NewPairStore(markets *MarketStore) *PairStore {
	return &PairStore{
		byID:    make(map[string]domain.MarketPair),
		byKey:   make(map[pairKey]string),
		markets: markets,
	}
}

// UpsertBatch inserts or refreshes pairs. Manual overrides keep their stored
// confidence; automatic pairs take the freshly computed score.
func (s *PairStore) UpsertBatch(_ context.Context, pairs []domain.MarketPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, p := range pairs {
		p.MarketAID, p.MarketBID = domain.CanonicalPairKey(p.MarketAID, p.MarketBID)
		key := pairKey{a: p.MarketAID, b: p.MarketBID}
		if id, ok := s.byKey[key]; ok {
			existing := s.byID[id]
			if existing.IsManualOverride {
				continue
			}
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
		} else {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.CreatedAt = now
			s.byKey[key] = p.ID
		}
		p.UpdatedAt = now
		s.byID[p.ID] = p
	}
	return nil
}

func (s *PairStore) GetByID(_ context.Context, id string) (domain.MarketPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return domain.MarketPair{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *PairStore) List(_ context.Context, opts domain.ListOpts) ([]domain.MarketPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MarketPair, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

// PruneAutomatic removes non-override pairs whose markets are missing or no
// longer active.
func (s *PairStore) PruneAutomatic(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.byID {
		if p.IsManualOverride {
			continue
		}
		if s.marketActive(ctx, p.MarketAID) && s.marketActive(ctx, p.MarketBID) {
			continue
		}
		delete(s.byID, id)
		delete(s.byKey, pairKey{a: p.MarketAID, b: p.MarketBID})
		n++
	}
	return n, nil
}

func (s *PairStore) marketActive(ctx context.Context, marketID string) bool {
	m, err := s.markets.GetByID(ctx, marketID)
	return err == nil && m.Status == domain.MarketStatusActive
}

func (s *PairStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

var _ domain.MarketPairStore = (*PairStore)(nil)
