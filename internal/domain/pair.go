package domain

import "time"

// MarketPair links two markets on different venues believed to resolve on the
// same real-world event. Market IDs are stored in canonical order
// (MarketAID < MarketBID) so that a pair and its reverse cannot both exist.
type MarketPair struct {
	ID               string    `json:"id"`
	MarketAID        string    `json:"market_a_id"`
	MarketBID        string    `json:"market_b_id"`
	ConfidenceScore  int       `json:"confidence_score"` // 0-100, similarity-derived
	IsManualOverride bool      `json:"is_manual_override"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanonicalPairKey returns the two market IDs in canonical (sorted) order.
func CanonicalPairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
