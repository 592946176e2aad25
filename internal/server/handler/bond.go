package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/pricing"
	"github.com/stylelend/rentbond/internal/service"
)

// QuoteService defines what the bond handler needs from the quote layer.
type QuoteService interface {
	Create(ctx context.Context, params domain.PricingParams) (domain.Quote, error)
}

// BondService defines what the bond handler needs from the bond ledger.
type BondService interface {
	Purchase(ctx context.Context, user string, params domain.PricingParams, quoteID string) (domain.Bond, error)
	Redeem(ctx context.Context, bondID, tokenID, location string) (service.RedemptionResult, error)
	Get(ctx context.Context, bondID string) (domain.Bond, error)
	History(ctx context.Context) ([]domain.RentalEvent, error)
}

// BondHandler serves the quote, purchase, redemption, and audit endpoints.
type BondHandler struct {
	quotes QuoteService
	bonds  BondService
	logger *slog.Logger
}

// NewBondHandler creates a BondHandler.
func NewBondHandler(quotes QuoteService, bonds BondService, logger *slog.Logger) *BondHandler {
	return &BondHandler{quotes: quotes, bonds: bonds, logger: logger}
}

// CreateQuote prices a bond and stores the quote for later purchase.
// POST /bonds/quote
func (h *BondHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var params domain.PricingParams
	if !decodeJSON(w, r, &params) {
		return
	}

	q, err := h.quotes.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quote_id":      q.QuoteID,
		"fair_value":    q.Pricing.FairValue,
		"rentals_value": q.Pricing.RentalsValue,
		"discount":      q.Pricing.Discount,
		"implied_yield": q.Pricing.ImpliedYield,
		"tenor_years":   q.Pricing.TenorYears,
		"expires_at":    q.ExpiresAt.Format(time.RFC3339),
	})
}

type purchaseRequest struct {
	User    string `json:"user"`
	TokenID string `json:"token_id"`
	QuoteID string `json:"quote_id"`
	domain.PricingParams
}

// Purchase creates an active bond from a stored quote or fresh params.
// POST /bonds/purchase
func (h *BondHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.bonds.Purchase(r.Context(), req.User, req.PricingParams, req.QuoteID)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	// Pricing is deterministic in the params, so the purchase response can be
	// recomputed from the params stored on the bond.
	priced := pricing.Price(b.Params)
	writeJSON(w, http.StatusOK, map[string]any{
		"bond_id":       b.BondID,
		"fair_value":    priced.FairValue,
		"rentals_value": priced.RentalsValue,
		"discount":      priced.Discount,
		"implied_yield": priced.ImpliedYield,
		"tenor_years":   priced.TenorYears,
	})
}

type redeemRequest struct {
	BondID   string `json:"bond_id"`
	TokenID  string `json:"token_id"`
	Location string `json:"location"`
}

// Redeem consumes one rental from the bond's bundle.
// POST /bonds/redeem
func (h *BondHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.bonds.Redeem(r.Context(), req.BondID, req.TokenID, req.Location)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"bundle_left":   res.BundleLeft,
		"reward_points": res.RewardPoints,
	})
}

// GetBond returns the full bond record.
// GET /bonds/{bond_id}
func (h *BondHandler) GetBond(w http.ResponseWriter, r *http.Request) {
	bondID := r.PathValue("bond_id")
	if bondID == "" {
		writeError(w, http.StatusBadRequest, "missing bond id")
		return
	}

	b, err := h.bonds.Get(r.Context(), bondID)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// History returns the rental audit log in insertion order.
// GET /history
func (h *BondHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.bonds.History(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	if events == nil {
		events = []domain.RentalEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
