package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/arbradar/arbradar/internal/domain"
)

// SignalBus implements domain.SignalBus on Redis Pub/Sub. Delivery is
// fire-and-forget: subscribers that connect after a publish never see it,
// which is fine for a change feed whose consumers re-read the stores anyway.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription and returns a channel of raw
// payloads. The subscription and the returned channel are closed when ctx
// is cancelled. Channel names containing glob wildcards use PSubscribe.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := sb.open(ctx, channel)

	// Receive the confirmation frame so a dead broker fails here, not on
	// the first missed message.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go sb.forward(ctx, sub, out)
	return out, nil
}

func (sb *SignalBus) open(ctx context.Context, channel string) *redis.PubSub {
	if strings.ContainsAny(channel, "*?[") {
		return sb.rdb.PSubscribe(ctx, channel)
	}
	return sb.rdb.Subscribe(ctx, channel)
}

func (sb *SignalBus) forward(ctx context.Context, sub *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer sub.Close()

	feed := sub.Channel()
	for {
		var msg *redis.Message
		var ok bool
		select {
		case <-ctx.Done():
			return
		case msg, ok = <-feed:
			if !ok {
				return
			}
		}

		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

var _ domain.SignalBus = (*SignalBus)(nil)
