package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/store/memory"
)

func testParams() domain.PricingParams {
	return domain.PricingParams{
		BasePrice:         100,
		BundleRentals:     3,
		HolidayMultiplier: 1.0,
		RiskSpreadBps:     0,
	}
}

func TestQuoteCreateAndResolve(t *testing.T) {
	svc := NewQuoteService(memory.NewQuoteStore(), slog.Default())
	ctx := context.Background()

	q, err := svc.Create(ctx, testParams())
	require.NoError(t, err)
	assert.Equal(t, "QUOTE-000001", q.QuoteID)
	assert.Equal(t, 300.00, q.Pricing.FairValue)
	assert.Equal(t, domain.QuoteTTL, q.ExpiresAt.Sub(q.CreatedAt))

	got, err := svc.Resolve(ctx, q.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestQuoteCreateRejectsBadParams(t *testing.T) {
	svc := NewQuoteService(memory.NewQuoteStore(), slog.Default())

	p := testParams()
	p.BasePrice = -1
	_, err := svc.Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQuoteResolveUnknown(t *testing.T) {
	svc := NewQuoteService(memory.NewQuoteStore(), slog.Default())

	_, err := svc.Resolve(context.Background(), "QUOTE-404404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuoteResolveExpired(t *testing.T) {
	svc := NewQuoteService(memory.NewQuoteStore(), slog.Default())
	ctx := context.Background()

	q, err := svc.Create(ctx, testParams())
	require.NoError(t, err)

	// Jump past the TTL. Expired must be distinct from NotFound.
	svc.now = func() time.Time { return q.ExpiresAt.Add(time.Second) }

	_, err = svc.Resolve(ctx, q.QuoteID)
	assert.ErrorIs(t, err, domain.ErrQuoteExpired)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestQuoteResolveAtBoundary(t *testing.T) {
	svc := NewQuoteService(memory.NewQuoteStore(), slog.Default())
	ctx := context.Background()

	q, err := svc.Create(ctx, testParams())
	require.NoError(t, err)

	// Exactly at expires_at the quote is still purchasable.
	svc.now = func() time.Time { return q.ExpiresAt }

	_, err = svc.Resolve(ctx, q.QuoteID)
	assert.NoError(t, err)
}
