// Package calculator evaluates matched market pairs for profitable
// cross-venue trades. For each pair it considers four directional
// combinations, keeps the best, nets out venue fees, and classifies
// execution risk.
package calculator

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arbradar/arbradar/internal/domain"
)

// PairMarkets joins a persisted pair with its two resolved markets and the
// fee rates of their venues.
type PairMarkets struct {
	Pair     domain.MarketPair
	MarketA  domain.Market
	MarketB  domain.Market
	FeeRateA float64 // fraction, e.g. 0.02
	FeeRateB float64
}

// Config holds the opportunity thresholds.
type Config struct {
	MinNetSpreadPct float64 // default 1.0 (%)
	MinLiquidityUSD float64 // default 500
}

// Calculator computes arbitrage opportunities from matched pairs.
type Calculator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Calculator. Zero-valued thresholds fall back to defaults.
func New(cfg Config, logger *slog.Logger) *Calculator {
	if cfg.MinNetSpreadPct == 0 {
		cfg.MinNetSpreadPct = 1.0
	}
	if cfg.MinLiquidityUSD == 0 {
		cfg.MinLiquidityUSD = 500
	}
	return &Calculator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "calculator")),
	}
}

// combo is one directional trade combination: buy one side on market A,
// sell on market B at an effective price.
type combo struct {
	buySide   domain.Side
	sellSide  domain.Side
	buyPrice  float64
	sellPrice float64
	buyLiq    float64
	sellLiq   float64
}

// Calculate evaluates every pair and returns the opportunities passing the
// spread and liquidity filters, sorted descending by net spread.
func (c *Calculator) Calculate(pairs []PairMarkets) []domain.ArbitrageOpportunity {
	var out []domain.ArbitrageOpportunity
	now := time.Now().UTC()

	for i := range pairs {
		if opp, ok := c.evaluate(&pairs[i], now); ok {
			out = append(out, opp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NetSpreadPct > out[j].NetSpreadPct
	})

	c.logger.Info("calculated opportunities",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(out)),
	)
	return out
}

// evaluate picks the best of the four directional combinations for one pair
// and applies the fee, spread, and liquidity filters. Pairs whose prices are
// missing (zero) naturally fail the positive-spread requirement.
func (c *Calculator) evaluate(pm *PairMarkets, now time.Time) (domain.ArbitrageOpportunity, bool) {
	a, b := pm.MarketA, pm.MarketB

	combos := []combo{
		// Buy YES on A, sell YES on B.
		{domain.SideYes, domain.SideYes, a.YesPrice, b.YesPrice, a.YesLiquidity, b.YesLiquidity},
		// Buy NO on A, sell NO on B.
		{domain.SideNo, domain.SideNo, a.NoPrice, b.NoPrice, a.NoLiquidity, b.NoLiquidity},
		// Buy YES on A, sell NO on B at the complementary price.
		{domain.SideYes, domain.SideNo, a.YesPrice, 1 - b.NoPrice, a.YesLiquidity, b.NoLiquidity},
		// Buy NO on A, sell YES on B at the complementary price.
		{domain.SideNo, domain.SideYes, a.NoPrice, 1 - b.YesPrice, a.NoLiquidity, b.YesLiquidity},
	}

	var best combo
	bestSpread := 0.0
	found := false
	for _, cb := range combos {
		if cb.buyPrice <= 0 {
			continue
		}
		spread := cb.sellPrice - cb.buyPrice
		if spread > bestSpread {
			bestSpread = spread
			best = cb
			found = true
		}
	}
	if !found {
		return domain.ArbitrageOpportunity{}, false
	}

	grossPct := bestSpread / best.buyPrice * 100
	netPct := grossPct - (pm.FeeRateA+pm.FeeRateB)*100
	maxTradable := math.Min(best.buyLiq, best.sellLiq)

	if netPct < c.cfg.MinNetSpreadPct || maxTradable < c.cfg.MinLiquidityUSD {
		return domain.ArbitrageOpportunity{}, false
	}

	profitUSD := maxTradable * netPct / 100

	return domain.ArbitrageOpportunity{
		ID:                uuid.New().String(),
		PairID:            pm.Pair.ID,
		BuyVenueID:        a.VenueID,
		SellVenueID:       b.VenueID,
		BuySide:           best.buySide,
		SellSide:          best.sellSide,
		BuyPrice:          best.buyPrice,
		SellPrice:         best.sellPrice,
		BuyLiquidity:      roundCurrency(best.buyLiq),
		SellLiquidity:     roundCurrency(best.sellLiq),
		GrossSpreadPct:    roundPct(grossPct),
		NetSpreadPct:      roundPct(netPct),
		ExpectedProfitPct: roundPct(netPct),
		ExpectedProfitUSD: roundCurrency(profitUSD),
		MaxTradableAmount: roundCurrency(maxTradable),
		RiskLevel:         classifyRisk(netPct, maxTradable),
		Status:            domain.OpportunityStatusActive,
		CreatedAt:         now,
	}, true
}

// classifyRisk buckets an opportunity: very large spreads or thin liquidity
// usually mean stale or suspect quotes, so they rank high risk.
func classifyRisk(netSpreadPct, liquidity float64) domain.RiskLevel {
	switch {
	case netSpreadPct > 5 || liquidity < 1000:
		return domain.RiskHigh
	case netSpreadPct > 2 && liquidity > 5000:
		return domain.RiskLow
	default:
		return domain.RiskMedium
	}
}

// roundPct rounds percentages to 4 decimal places.
func roundPct(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// roundCurrency rounds USD amounts to 2 decimal places.
func roundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
