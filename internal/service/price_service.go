package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
)

// ItemQuote is a per-rental price for one item, after FX conversion and
// risk-grade adjustment.
type ItemQuote struct {
	TokenID    string
	FinalPrice float64
	Detail     map[string]any
	Timestamp  int64
}

// PriceService quotes per-rental item prices. It applies an FX multiplier
// from the external price feed and a surcharge or discount from the item's
// current risk grade.
type PriceService struct {
	feed   domain.PriceFeed
	items  domain.ItemProfileStore
	logger *slog.Logger
	now    func() time.Time
}

// NewPriceService creates a PriceService.
func NewPriceService(feed domain.PriceFeed, items domain.ItemProfileStore, logger *slog.Logger) *PriceService {
	return &PriceService{
		feed:   feed,
		items:  items,
		logger: logger.With(slog.String("component", "price_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// QuoteItemPrice prices a single rental of the given item. An empty fxFeedID
// skips FX conversion. Unregistered items are priced without a risk
// adjustment; registration is not required for a price check.
func (s *PriceService) QuoteItemPrice(ctx context.Context, tokenID string, basePrice float64, fxFeedID string) (ItemQuote, error) {
	if tokenID == "" {
		return ItemQuote{}, fmt.Errorf("price quote: token_id: %w", domain.ErrValidation)
	}
	if basePrice <= 0 {
		return ItemQuote{}, fmt.Errorf("price quote: base_price: %w", domain.ErrValidation)
	}

	price := basePrice
	detail := map[string]any{"base": basePrice}

	fx, source := 1.0, "none"
	if fxFeedID != "" {
		var err error
		fx, source, err = s.feed.Read(ctx, fxFeedID)
		if err != nil {
			return ItemQuote{}, fmt.Errorf("price_service: fx read: %w", err)
		}
	}
	price *= fx
	detail["fx"] = fx
	detail["fx_source"] = source

	if item, err := s.items.GetByID(ctx, tokenID); err == nil {
		score := item.RiskScore()
		grade := domain.GradeFromScore(score)
		adj := riskMultiplier(grade)
		price *= adj
		detail["risk_grade"] = grade
		detail["risk_mul"] = adj
	}

	return ItemQuote{
		TokenID:    tokenID,
		FinalPrice: math.Round(price*100) / 100,
		Detail:     detail,
		Timestamp:  s.now().Unix(),
	}, nil
}

// riskMultiplier discounts top-grade items and surcharges speculative ones.
func riskMultiplier(grade domain.RiskGrade) float64 {
	switch grade {
	case domain.GradeAAA, domain.GradeAA:
		return 0.95
	case domain.GradeBB, domain.GradeB, domain.GradeCCC, domain.GradeCC, domain.GradeC, domain.GradeD:
		return 1.10
	default:
		return 1.00
	}
}
