package domain

import "time"

// MarketStats is the aggregate snapshot served by the status facade.
type MarketStats struct {
	Venues              int64     `json:"venues"`
	ActiveMarkets       int64     `json:"active_markets"`
	MarketPairs         int64     `json:"market_pairs"`
	ActiveOpportunities int64     `json:"active_opportunities"`
	AvgNetSpreadPct     float64   `json:"avg_net_spread_pct"`
	TotalVolume24h      float64   `json:"total_volume_24h"`
	LastSyncAt          time.Time `json:"last_sync_at"`
}

// HealthStatus is the coarse health classification derived from data
// freshness and the presence of active venues, markets, and opportunities.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthError    HealthStatus = "error"
	HealthCritical HealthStatus = "critical"
)

// Status is the facade's user-visible engine status. Raw internal errors
// never cross this boundary; Error carries a human-readable summary only.
type Status struct {
	Health     HealthStatus `json:"health_status"`
	Stats      MarketStats  `json:"data_stats"`
	LastUpdate time.Time    `json:"last_update"`
	Error      string       `json:"error,omitempty"`
}

// QualityReport summarizes data-quality checks over the persisted sets.
type QualityReport struct {
	StaleMarkets     int64    `json:"stale_markets"`
	OrphanPairs      int64    `json:"orphan_pairs"`
	SameVenuePairs   int64    `json:"same_venue_pairs"`
	InvalidSpreads   int64    `json:"invalid_spreads"`
	Issues           []string `json:"issues,omitempty"`
	CheckedMarkets   int64    `json:"checked_markets"`
	CheckedPairs     int64    `json:"checked_pairs"`
	CheckedOpportuns int64    `json:"checked_opportunities"`
}

// MaintenanceReport captures before/after stats for a maintenance run.
type MaintenanceReport struct {
	Before        MarketStats `json:"before"`
	After         MarketStats `json:"after"`
	ClosedMarkets int64       `json:"closed_markets"`
	PrunedPairs   int64       `json:"pruned_pairs"`
}
