// Package bus provides an in-process implementation of the signal bus used
// when Redis is not configured. Delivery is best effort: slow subscribers
// drop messages rather than block publishers.
package bus

import (
	"context"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// MemoryBus implements domain.SignalBus with per-channel subscriber lists.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan []byte)}
}

// Publish delivers payload to every current subscriber of the channel.
// Subscribers with a full buffer miss the message.
func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for the channel. The returned channel
// closes when ctx is cancelled.
func (b *MemoryBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 128)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		list := b.subs[channel]
		for i, c := range list {
			if c == ch {
				b.subs[channel] = append(list[:i], list[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

var _ domain.SignalBus = (*MemoryBus)(nil)
