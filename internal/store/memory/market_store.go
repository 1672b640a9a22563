package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbradar/arbradar/internal/domain"
)

type marketKey struct {
	venueID    string
	externalID string
}

// MarketStore is an in-memory implementation of domain.MarketStore.
type MarketStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.Market
	byKey map[marketKey]string // (venue_id, external_id) -> id
}

// NewMarketStore creates an empty in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		byID:  make(map[string]domain.Market),
		byKey: make(map[marketKey]string),
	}
}

// UpsertBatch inserts or refreshes markets keyed by (venue_id, external_id).
func (s *MarketStore) UpsertBatch(_ context.Context, markets []domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range markets {
		key := marketKey{venueID: m.VenueID, externalID: m.ExternalID}
		if id, ok := s.byKey[key]; ok {
			existing := s.byID[id]
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
		} else {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			m.CreatedAt = now
			s.byKey[key] = m.ID
		}
		m.UpdatedAt = now
		s.byID[m.ID] = m
	}
	return nil
}

func (s *MarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *MarketStore) ListActive(_ context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Market
	for _, m := range s.byID {
		if m.Status == domain.MarketStatusActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

// CloseStale flips markets not refreshed since cutoff to closed.
func (s *MarketStore) CloseStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now().UTC()
	for id, m := range s.byID {
		if m.Status == domain.MarketStatusActive && m.LastUpdated.Before(cutoff) {
			m.Status = domain.MarketStatusClosed
			m.UpdatedAt = now
			s.byID[id] = m
			n++
		}
	}
	return n, nil
}

func (s *MarketStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *MarketStore) CountActive(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.byID {
		if m.Status == domain.MarketStatusActive {
			n++
		}
	}
	return n, nil
}

func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

var _ domain.MarketStore = (*MarketStore)(nil)
