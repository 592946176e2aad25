package handler

import (
	"log/slog"
	"net/http"

	"github.com/stylelend/rentbond/internal/domain"
)

// RewardsHandler serves the flat points ledger surface.
type RewardsHandler struct {
	ledger domain.PointsLedger
	logger *slog.Logger
}

// NewRewardsHandler creates a RewardsHandler.
func NewRewardsHandler(ledger domain.PointsLedger, logger *slog.Logger) *RewardsHandler {
	return &RewardsHandler{ledger: ledger, logger: logger}
}

// Balance returns a user's current points balance.
// GET /rewards/balance/{user}
func (h *RewardsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), user)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "balance": balance})
}

type pointsRequest struct {
	User   string `json:"user"`
	Amount int    `json:"amount"`
}

// Issue credits points to a user.
// POST /rewards/issue
func (h *RewardsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.User == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "user and positive amount required")
		return
	}

	balance, err := h.ledger.Credit(r.Context(), req.User, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": req.User, "balance": balance})
}

// Spend debits points from a user; 400 when the balance does not cover it.
// POST /rewards/spend
func (h *RewardsHandler) Spend(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.User == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "user and positive amount required")
		return
	}

	balance, err := h.ledger.Debit(r.Context(), req.User, req.Amount)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": req.User, "balance": balance})
}
