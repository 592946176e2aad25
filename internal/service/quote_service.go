// Package service contains the application services: quote issuance, the bond
// ledger, the risk engine, and item price quoting. Services own all domain
// logic; HTTP handlers stay thin and stores stay dumb.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/pricing"
)

// QuoteService issues short-lived bond quotes and resolves them at purchase
// time. Expiry is evaluated lazily on lookup; there is no sweeper.
type QuoteService struct {
	quotes domain.QuoteStore
	logger *slog.Logger
	now    func() time.Time
}

// NewQuoteService creates a QuoteService backed by the given store.
func NewQuoteService(quotes domain.QuoteStore, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		quotes: quotes,
		logger: logger.With(slog.String("component", "quote_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create prices the given params and persists the quote with a 10-minute TTL.
func (s *QuoteService) Create(ctx context.Context, params domain.PricingParams) (domain.Quote, error) {
	if err := params.Validate(); err != nil {
		return domain.Quote{}, fmt.Errorf("quote params: %w", err)
	}

	now := s.now()
	q, err := s.quotes.Create(ctx, domain.Quote{
		CreatedAt: now,
		ExpiresAt: now.Add(domain.QuoteTTL),
		Params:    params,
		Pricing:   pricing.Price(params),
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote_service: create: %w", err)
	}

	s.logger.InfoContext(ctx, "quote created",
		slog.String("quote_id", q.QuoteID),
		slog.Float64("fair_value", q.Pricing.FairValue),
		slog.Int("bundle_rentals", params.BundleRentals),
	)
	return q, nil
}

// Resolve looks up a quote for purchase. Unknown ids return ErrNotFound;
// known-but-stale ids return ErrQuoteExpired so the caller can attribute the
// failure and prompt a re-quote.
func (s *QuoteService) Resolve(ctx context.Context, quoteID string) (domain.Quote, error) {
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return domain.Quote{}, err
	}
	if q.Expired(s.now()) {
		return domain.Quote{}, fmt.Errorf("quote %s: %w", quoteID, domain.ErrQuoteExpired)
	}
	return q, nil
}
