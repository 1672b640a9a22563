package calculator

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbradar/arbradar/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pairWith(a, b domain.Market, feeA, feeB float64) PairMarkets {
	a.VenueID = "venue-a"
	b.VenueID = "venue-b"
	return PairMarkets{
		Pair:     domain.MarketPair{ID: "pair-1", MarketAID: a.ID, MarketBID: b.ID},
		MarketA:  a,
		MarketB:  b,
		FeeRateA: feeA,
		FeeRateB: feeB,
	}
}

func TestCalculator_YesYesSpread(t *testing.T) {
	c := New(Config{}, testLogger())

	// Buy YES at 0.52, sell YES at 0.58: 11.54% gross, minus 2%+2% fees.
	a := domain.Market{ID: "m1", YesPrice: 0.52, NoPrice: 0.49, YesLiquidity: 5000, NoLiquidity: 5000}
	b := domain.Market{ID: "m2", YesPrice: 0.58, NoPrice: 0.43, YesLiquidity: 3000, NoLiquidity: 3000}

	opps := c.Calculate([]PairMarkets{pairWith(a, b, 0.02, 0.02)})
	if !assert.Len(t, opps, 1) {
		return
	}

	opp := opps[0]
	assert.Equal(t, domain.SideYes, opp.BuySide)
	assert.Equal(t, domain.SideYes, opp.SellSide)
	assert.Equal(t, "venue-a", opp.BuyVenueID)
	assert.Equal(t, "venue-b", opp.SellVenueID)
	assert.InDelta(t, 11.5385, opp.GrossSpreadPct, 0.0001)
	assert.InDelta(t, 7.5385, opp.NetSpreadPct, 0.0001)
	assert.Less(t, opp.NetSpreadPct, opp.GrossSpreadPct)
	assert.Equal(t, 3000.0, opp.MaxTradableAmount)
	assert.InDelta(t, 3000*7.5385/100, opp.ExpectedProfitUSD, 0.01)
	assert.Equal(t, domain.OpportunityStatusActive, opp.Status)
}

func TestCalculator_ComplementaryNoSide(t *testing.T) {
	c := New(Config{}, testLogger())

	// Best direction is buy YES on A at 0.40, sell NO on B at 1-0.45 = 0.55.
	a := domain.Market{ID: "m1", YesPrice: 0.40, NoPrice: 0.62, YesLiquidity: 4000, NoLiquidity: 4000}
	b := domain.Market{ID: "m2", YesPrice: 0.42, NoPrice: 0.45, YesLiquidity: 4000, NoLiquidity: 4000}

	opps := c.Calculate([]PairMarkets{pairWith(a, b, 0, 0)})
	if !assert.Len(t, opps, 1) {
		return
	}
	assert.Equal(t, domain.SideYes, opps[0].BuySide)
	assert.Equal(t, domain.SideNo, opps[0].SellSide)
	assert.InDelta(t, 0.55, opps[0].SellPrice, 1e-9)
}

func TestCalculator_RejectsBelowMinSpread(t *testing.T) {
	c := New(Config{MinNetSpreadPct: 1.0}, testLogger())

	// 2% gross, 1%+1% fees leaves 0% net.
	a := domain.Market{ID: "m1", YesPrice: 0.50, NoPrice: 0.50, YesLiquidity: 5000, NoLiquidity: 5000}
	b := domain.Market{ID: "m2", YesPrice: 0.51, NoPrice: 0.49, YesLiquidity: 5000, NoLiquidity: 5000}

	assert.Empty(t, c.Calculate([]PairMarkets{pairWith(a, b, 0.01, 0.01)}))
}

func TestCalculator_RejectsThinLiquidity(t *testing.T) {
	c := New(Config{MinLiquidityUSD: 500}, testLogger())

	// Healthy spread but only $300 tradable on the sell side.
	a := domain.Market{ID: "m1", YesPrice: 0.50, NoPrice: 0.50, YesLiquidity: 5000, NoLiquidity: 5000}
	b := domain.Market{ID: "m2", YesPrice: 0.56, NoPrice: 0.44, YesLiquidity: 300, NoLiquidity: 300}

	assert.Empty(t, c.Calculate([]PairMarkets{pairWith(a, b, 0, 0)}))
}

func TestCalculator_MissingPricesProduceNothing(t *testing.T) {
	c := New(Config{}, testLogger())

	a := domain.Market{ID: "m1", YesLiquidity: 5000, NoLiquidity: 5000}
	b := domain.Market{ID: "m2", YesLiquidity: 5000, NoLiquidity: 5000}

	assert.Empty(t, c.Calculate([]PairMarkets{pairWith(a, b, 0, 0)}))
}

func TestCalculator_SortsByNetSpreadDescending(t *testing.T) {
	c := New(Config{}, testLogger())

	small := pairWith(
		domain.Market{ID: "m1", YesPrice: 0.50, NoPrice: 0.50, YesLiquidity: 5000, NoLiquidity: 5000},
		domain.Market{ID: "m2", YesPrice: 0.52, NoPrice: 0.48, YesLiquidity: 5000, NoLiquidity: 5000},
		0, 0,
	)
	large := pairWith(
		domain.Market{ID: "m3", YesPrice: 0.50, NoPrice: 0.50, YesLiquidity: 5000, NoLiquidity: 5000},
		domain.Market{ID: "m4", YesPrice: 0.60, NoPrice: 0.40, YesLiquidity: 5000, NoLiquidity: 5000},
		0, 0,
	)

	opps := c.Calculate([]PairMarkets{small, large})
	if !assert.Len(t, opps, 2) {
		return
	}
	assert.Greater(t, opps[0].NetSpreadPct, opps[1].NetSpreadPct)
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, domain.RiskHigh, classifyRisk(6.0, 10000), "spread over 5%% is suspect")
	assert.Equal(t, domain.RiskHigh, classifyRisk(1.5, 800), "thin liquidity is high risk")
	assert.Equal(t, domain.RiskLow, classifyRisk(3.0, 6000))
	assert.Equal(t, domain.RiskMedium, classifyRisk(1.5, 3000))
	assert.Equal(t, domain.RiskMedium, classifyRisk(3.0, 2000))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 7.5385, roundPct(7.53846153))
	assert.Equal(t, 1234.57, roundCurrency(1234.5678))
}
