package domain

import (
	"context"
	"time"
)

// SignalBus is a lightweight publish/subscribe channel used to fan out
// redemption and risk events to the WebSocket hub and the notifier.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel of raw payloads. The subscription ends and
	// the channel closes when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter enforces a request budget per key within a rolling window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
