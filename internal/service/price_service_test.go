package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/feed"
	"github.com/stylelend/rentbond/internal/store/memory"
)

const flrUsdFeed = "0x01464c522f55534400000000000000000000000000"

func newPriceFixture() (*PriceService, *memory.ItemProfileStore) {
	items := memory.NewItemProfileStore()
	return NewPriceService(feed.NewMockFeed(), items, slog.Default()), items
}

func TestQuoteItemPriceNoFeedNoProfile(t *testing.T) {
	svc, _ := newPriceFixture()

	q, err := svc.QuoteItemPrice(context.Background(), "NFT-1", 120, "")
	require.NoError(t, err)
	assert.Equal(t, 120.0, q.FinalPrice)
	assert.Equal(t, 1.0, q.Detail["fx"])
	assert.Equal(t, "none", q.Detail["fx_source"])
	assert.NotContains(t, q.Detail, "risk_grade")
}

func TestQuoteItemPriceAppliesFx(t *testing.T) {
	svc, _ := newPriceFixture()

	q, err := svc.QuoteItemPrice(context.Background(), "NFT-1", 100, flrUsdFeed)
	require.NoError(t, err)
	assert.Equal(t, 2.5, q.FinalPrice) // 100 * 0.025
	assert.Equal(t, "mock", q.Detail["fx_source"])
}

func TestQuoteItemPriceRiskAdjustment(t *testing.T) {
	svc, items := newPriceFixture()
	ctx := context.Background()

	// Pristine item: AAA grade earns the 0.95 discount.
	require.NoError(t, items.Put(ctx, domain.ItemProfile{TokenID: "NFT-GOOD"}))
	q, err := svc.QuoteItemPrice(ctx, "NFT-GOOD", 100, "")
	require.NoError(t, err)
	assert.Equal(t, 95.0, q.FinalPrice)
	assert.Equal(t, domain.GradeAAA, q.Detail["risk_grade"])

	// Battered item: score 100-50-16=34 -> D grade, 1.10 surcharge.
	require.NoError(t, items.Put(ctx, domain.ItemProfile{TokenID: "NFT-BAD", WearLevel: 5, Returns: 4}))
	q, err = svc.QuoteItemPrice(ctx, "NFT-BAD", 100, "")
	require.NoError(t, err)
	assert.Equal(t, 110.0, q.FinalPrice)
	assert.Equal(t, domain.GradeD, q.Detail["risk_grade"])
}

func TestQuoteItemPriceValidation(t *testing.T) {
	svc, _ := newPriceFixture()
	ctx := context.Background()

	_, err := svc.QuoteItemPrice(ctx, "", 100, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.QuoteItemPrice(ctx, "NFT-1", 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
