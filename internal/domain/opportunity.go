package domain

import "time"

// Side identifies which leg of a binary contract a trade takes.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// RiskLevel is a coarse execution-risk classification for an opportunity.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// OpportunityStatus represents the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	OpportunityStatusActive  OpportunityStatus = "active"
	OpportunityStatusExpired OpportunityStatus = "expired"
)

// ArbitrageOpportunity is a computed profitable trade pairing positions
// across two matched markets, net of venue fees. Opportunities are derived
// data: the whole active set is replaced every sync cycle.
type ArbitrageOpportunity struct {
	ID                string            `json:"id"`
	PairID            string            `json:"pair_id"`
	BuyVenueID        string            `json:"buy_venue_id"`
	SellVenueID       string            `json:"sell_venue_id"`
	BuySide           Side              `json:"buy_side"`
	SellSide          Side              `json:"sell_side"`
	BuyPrice          float64           `json:"buy_price"`
	SellPrice         float64           `json:"sell_price"`
	BuyLiquidity      float64           `json:"buy_liquidity"`
	SellLiquidity     float64           `json:"sell_liquidity"`
	GrossSpreadPct    float64           `json:"gross_spread_pct"`
	NetSpreadPct      float64           `json:"net_spread_pct"`
	ExpectedProfitPct float64           `json:"expected_profit_pct"`
	ExpectedProfitUSD float64           `json:"expected_profit_usd"`
	MaxTradableAmount float64           `json:"max_tradable_amount"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	Status            OpportunityStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}
