package domain

import "context"

// Signal bus channel names published by the engine.
const (
	ChannelSync          = "sync"
	ChannelOpportunities = "opportunities"
	ChannelMarkets       = "markets"
)

// SignalBus is the change-feed used to push engine events (sync completed,
// opportunity set replaced, markets refreshed) to subscribers such as the
// status facade and the websocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a read-only channel of raw payloads. The subscription
	// closes when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// StatsCache caches the aggregate stats snapshot with a short TTL so the
// facade does not hit the aggregation query on every read.
type StatsCache interface {
	Get(ctx context.Context) (MarketStats, error)
	Set(ctx context.Context, stats MarketStats) error
	Invalidate(ctx context.Context) error
}
