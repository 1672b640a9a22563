package domain

import "time"

// VenueStatus represents the operational state of a trading venue.
type VenueStatus string

const (
	VenueStatusActive      VenueStatus = "active"
	VenueStatusMaintenance VenueStatus = "maintenance"
)

// Venue is an external platform listing binary-outcome contracts
// (e.g. Polymarket, Kalshi, Manifold).
type Venue struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	Status    VenueStatus `json:"status"`
	FeeRate   float64     `json:"fee_rate"` // taker fee as a fraction, e.g. 0.02 for 2%
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
