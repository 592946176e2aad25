// Package feed implements the external price-feed collaborator: FX/price
// reads used by the item pricer. The mock backing serves fixed demo feeds;
// the FTSO backing reads the on-chain oracle.
package feed

import (
	"context"

	"github.com/stylelend/rentbond/internal/domain"
)

// defaultFeeds holds the demo feed values: feed id -> (raw value, decimals).
var defaultFeeds = map[string]struct {
	Value    int64
	Decimals int
}{
	// FLR/USD
	"0x01464c522f55534400000000000000000000000000": {25_000, 6},
}

// MockFeed implements domain.PriceFeed from a static table. Unknown feed ids
// resolve to 1.0 so demo flows never block on missing feeds.
type MockFeed struct {
	feeds map[string]struct {
		Value    int64
		Decimals int
	}
}

// NewMockFeed creates a MockFeed with the built-in demo feeds.
func NewMockFeed() *MockFeed {
	return &MockFeed{feeds: defaultFeeds}
}

// Read returns the feed value scaled by its decimals, labelled "mock".
func (f *MockFeed) Read(_ context.Context, feedID string) (float64, string, error) {
	entry, ok := f.feeds[feedID]
	if !ok {
		return 1.0, "mock", nil
	}
	scale := 1.0
	for i := 0; i < entry.Decimals; i++ {
		scale *= 10
	}
	return float64(entry.Value) / scale, "mock", nil
}

var _ domain.PriceFeed = (*MockFeed)(nil)
