package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/stylelend/rentbond/internal/service"
)

// PriceService defines what the pricing handler needs.
type PriceService interface {
	QuoteItemPrice(ctx context.Context, tokenID string, basePrice float64, fxFeedID string) (service.ItemQuote, error)
}

// PricingHandler serves per-rental item price quotes.
type PricingHandler struct {
	prices PriceService
	logger *slog.Logger
}

// NewPricingHandler creates a PricingHandler.
func NewPricingHandler(prices PriceService, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{prices: prices, logger: logger}
}

type priceQuoteRequest struct {
	TokenID   string  `json:"token_id"`
	BasePrice float64 `json:"base_price"`
	FXFeedID  string  `json:"fx_feed_id"`
}

// Quote prices one rental of an item, applying FX and risk-grade adjustment.
// POST /pricing/quote
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req priceQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := h.prices.QuoteItemPrice(r.Context(), req.TokenID, req.BasePrice, req.FXFeedID)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token_id":    q.TokenID,
		"final_price": q.FinalPrice,
		"detail":      q.Detail,
		"ts":          q.Timestamp,
	})
}
