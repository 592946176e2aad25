package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/stylelend/rentbond/internal/service"
)

// RiskService defines what the risk handler needs from the risk engine.
type RiskService interface {
	RegisterItem(ctx context.Context, tokenID, title string, wearLevel int) (service.RiskScore, error)
	ApplyItemEvent(ctx context.Context, tokenID, eventType string, meta map[string]any) (service.RiskScore, error)
	ItemScore(ctx context.Context, tokenID string) (service.RiskScore, error)
	ApplyUserEvent(ctx context.Context, userID, eventType string, meta map[string]any) (service.RiskScore, error)
	UserScore(ctx context.Context, userID string) (service.RiskScore, error)
	GateStatus() (bool, map[string]string)
}

// RiskHandler serves the item and user reliability endpoints.
type RiskHandler struct {
	risk   RiskService
	logger *slog.Logger
}

// NewRiskHandler creates a RiskHandler.
func NewRiskHandler(risk RiskService, logger *slog.Logger) *RiskHandler {
	return &RiskHandler{risk: risk, logger: logger}
}

type registerItemRequest struct {
	TokenID   string `json:"token_id"`
	Title     string `json:"title"`
	WearLevel int    `json:"wear_level"`
}

// RegisterItem creates an item risk profile with zeroed counters.
// POST /risk/nft/register
func (h *RiskHandler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	var req registerItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rs, err := h.risk.RegisterItem(r.Context(), req.TokenID, req.Title, req.WearLevel)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token_id":   req.TokenID,
		"risk_score": rs.Score,
		"risk_grade": rs.Grade,
	})
}

type itemEventRequest struct {
	TokenID   string         `json:"token_id"`
	EventType string         `json:"event_type"`
	Meta      map[string]any `json:"meta"`
}

// ItemEvent records an item lifecycle event and returns the updated score.
// POST /risk/nft/event
func (h *RiskHandler) ItemEvent(w http.ResponseWriter, r *http.Request) {
	var req itemEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rs, err := h.risk.ApplyItemEvent(r.Context(), req.TokenID, req.EventType, req.Meta)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token_id":   req.TokenID,
		"risk_score": rs.Score,
		"risk_grade": rs.Grade,
		"events":     rs.Events,
	})
}

// ItemScore returns the item's current score and grade.
// GET /risk/score/{token_id}
func (h *RiskHandler) ItemScore(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("token_id")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing token id")
		return
	}

	rs, err := h.risk.ItemScore(r.Context(), tokenID)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token_id":   tokenID,
		"risk_score": rs.Score,
		"risk_grade": rs.Grade,
		"events":     rs.Events,
	})
}

type userEventRequest struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Meta      map[string]any `json:"meta"`
}

// UserEvent records a user behaviour event, gated kinds requiring an
// attestation proof, and returns the updated score.
// POST /risk/user/event
func (h *RiskHandler) UserEvent(w http.ResponseWriter, r *http.Request) {
	var req userEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rs, err := h.risk.ApplyUserEvent(r.Context(), req.UserID, req.EventType, req.Meta)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    req.UserID,
		"user_score": rs.Score,
		"user_grade": rs.Grade,
		"events":     rs.Events,
	})
}

// UserScore returns the user's current score and grade, creating the profile
// lazily when absent.
// GET /risk/user/score/{user_id}
func (h *RiskHandler) UserScore(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	rs, err := h.risk.UserScore(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"user_score": rs.Score,
		"user_grade": rs.Grade,
		"events":     rs.Events,
	})
}

// GateStatus reports attestation enforcement and the gated event table.
// GET /risk/fdc/status
func (h *RiskHandler) GateStatus(w http.ResponseWriter, r *http.Request) {
	enforced, required := h.risk.GateStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"use_fdc":         enforced,
		"required_events": required,
	})
}
