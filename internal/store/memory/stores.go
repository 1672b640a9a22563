// Package memory provides in-memory store implementations used by tests and
// by the engine when no database is configured.
package memory

import "github.com/arbradar/arbradar/internal/domain"

// NewStores wires a complete in-memory store bundle.
func NewStores() domain.Stores {
	venues := NewVenueStore()
	markets := NewMarketStore()
	pairs := NewPairStore(markets)
	return domain.Stores{
		Venues:        venues,
		Markets:       markets,
		Pairs:         pairs,
		Opportunities: NewOpportunityStore(venues, markets, pairs),
	}
}
