package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive MarketStatus = "active"
	MarketStatusClosed MarketStatus = "closed"
)

// Category buckets markets by topic so the matcher only compares contracts
// that can plausibly resolve on the same real-world event.
type Category string

const (
	CategoryPolitics  Category = "politics"
	CategorySports    Category = "sports"
	CategoryCrypto    Category = "crypto"
	CategoryEconomics Category = "economics"
	CategoryOther     Category = "other"
)

// Market is one binary yes/no contract on one venue, normalized into the
// canonical shape regardless of the venue's native schema. Prices are
// probabilities in [0,1]; liquidity and volume are USD.
type Market struct {
	ID           string       `json:"id"`
	VenueID      string       `json:"venue_id"`
	ExternalID   string       `json:"external_id"` // venue-scoped; (VenueID, ExternalID) is unique
	Title        string       `json:"title"`
	Category     Category     `json:"category"`
	YesPrice     float64      `json:"yes_price"`
	NoPrice      float64      `json:"no_price"`
	YesLiquidity float64      `json:"yes_liquidity"`
	NoLiquidity  float64      `json:"no_liquidity"`
	Volume24h    float64      `json:"volume_24h"`
	Status       MarketStatus `json:"status"`
	LastUpdated  time.Time    `json:"last_updated"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
