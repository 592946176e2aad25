package notify

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/bus"
)

type recordingSender struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...), append([]string(nil), r.messages...)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestListenerForwardsBondEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewMemoryBus()
	sender := &recordingSender{}
	l := NewListener(b, NewNotifier([]Sender{sender}, nil, discard()), discard())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	// Give the listener a moment to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Publish(ctx, "bond", []byte(
		`{"event":"bond_purchased","bond_id":"BOND-000001","user":"alice","bundle":3}`,
	)))
	require.NoError(t, b.Publish(ctx, "bond", []byte(
		`{"event":"bond_redeemed","bond_id":"BOND-000001","user":"alice","token_id":"NFT-1","bundle_left":0}`,
	)))
	require.NoError(t, b.Publish(ctx, "risk", []byte(
		`{"event":"item_event","token_id":"NFT-1","event_type":"returned"}`,
	)))

	require.Eventually(t, func() bool {
		titles, _ := sender.snapshot()
		return len(titles) == 2
	}, time.Second, 10*time.Millisecond)

	titles, messages := sender.snapshot()
	require.Equal(t, []string{"Bond purchased", "Bond exhausted"}, titles)
	require.Contains(t, messages[0], "BOND-000001")
	require.Contains(t, messages[1], "NFT-1")

	cancel()
	// Run returns ctx.Err() on cancellation, or nil if the bus closed the
	// subscription channel first.
	if err := <-done; err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestNotifierFiltersEvents(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier([]Sender{sender}, []string{"bond_purchased"}, discard())

	require.NoError(t, n.Notify(context.Background(), "bond_redeemed", "t", "m"))
	require.NoError(t, n.Notify(context.Background(), "bond_purchased", "t2", "m2"))

	titles, _ := sender.snapshot()
	require.Equal(t, []string{"t2"}, titles)
}
