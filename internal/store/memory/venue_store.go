package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbradar/arbradar/internal/domain"
)

// VenueStore is an in-memory implementation of domain.VenueStore.
type VenueStore struct {
	mu     sync.RWMutex
	bySlug map[string]domain.Venue
}

// NewVenueStore creates an empty in-memory venue store.
func NewVenueStore() *VenueStore {
	return &VenueStore{bySlug: make(map[string]domain.Venue)}
}

// FindOrCreate resolves a venue by slug, inserting it when missing.
func (s *VenueStore) FindOrCreate(_ context.Context, v domain.Venue) (domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bySlug[v.Slug]; ok {
		return existing, nil
	}
	now := time.Now().UTC()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	s.bySlug[v.Slug] = v
	return v, nil
}

func (s *VenueStore) GetBySlug(_ context.Context, slug string) (domain.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.bySlug[slug]
	if !ok {
		return domain.Venue{}, domain.ErrNotFound
	}
	return v, nil
}

func (s *VenueStore) List(_ context.Context) ([]domain.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Venue, 0, len(s.bySlug))
	for _, v := range s.bySlug {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *VenueStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.bySlug)), nil
}

var _ domain.VenueStore = (*VenueStore)(nil)
