package notify

import (
	"fmt"

	"github.com/arbradar/arbradar/internal/domain"
)

// Event types emitted by the engine.
const (
	EventOpportunity = "opportunity"
	EventSyncFailed  = "sync_failed"
)

// FormatOpportunity renders an arbitrage opportunity as a notification
// title and body. Venue names are passed in because the opportunity only
// carries venue IDs.
func FormatOpportunity(o domain.ArbitrageOpportunity, buyVenue, sellVenue string) (title, message string) {
	title = fmt.Sprintf("Arb: %.2f%% net spread", o.NetSpreadPct)
	message = fmt.Sprintf(
		"Buy %s @ %.3f on %s, sell %s @ %.3f on %s.\nNet spread %.2f%%, up to $%.2f tradable (est. profit $%.2f), risk %s.",
		o.BuySide, o.BuyPrice, buyVenue,
		o.SellSide, o.SellPrice, sellVenue,
		o.NetSpreadPct, o.MaxTradableAmount, o.ExpectedProfitUSD, o.RiskLevel,
	)
	return title, message
}
