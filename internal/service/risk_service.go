package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stylelend/rentbond/internal/attest"
	"github.com/stylelend/rentbond/internal/domain"
)

// AttestationGate is the policy surface the risk engine needs from the
// attestation layer.
type AttestationGate interface {
	Enforced() bool
	Required(eventType string) bool
	Verify(ctx context.Context, eventType string, meta map[string]any) bool
}

// EffectKind says which direction a user event moves the score.
type EffectKind string

const (
	// Penalty lowers the score by Amount.
	Penalty EffectKind = "penalty"
	// Reward raises the score by Amount.
	Reward EffectKind = "reward"
)

// Effect is the scoring consequence of a user event kind.
type Effect struct {
	Kind   EffectKind
	Amount float64
}

// userEventEffects fixes the scoring consequence per user event kind. Kinds
// absent from the table are recorded in the audit log but leave the score
// unchanged.
var userEventEffects = map[string]Effect{
	// bad behaviour
	"not_returned":       {Penalty, 20},
	"late_return":        {Penalty, 8},
	"dirty_return":       {Penalty, 6},
	"false_non_delivery": {Penalty, 12},
	// good behaviour
	"on_time_delivery_ack": {Reward, 1},
	"good_return":          {Reward, 2},
}

// RiskScore pairs a score with its derived grade.
type RiskScore struct {
	Score  float64
	Grade  domain.RiskGrade
	Events int
}

// RiskService owns item and user reliability profiles. Item events adjust
// counters; user events adjust a running score, some gated behind an external
// attestation check. Every event is appended to the profile's audit log, even
// when the gate later refuses it.
type RiskService struct {
	items  domain.ItemProfileStore
	users  domain.UserProfileStore
	gate   AttestationGate
	bus    domain.SignalBus
	logger *slog.Logger
	now    func() time.Time
}

// NewRiskService creates a RiskService. bus may be nil when event streaming
// is disabled.
func NewRiskService(
	items domain.ItemProfileStore,
	users domain.UserProfileStore,
	gate AttestationGate,
	bus domain.SignalBus,
	logger *slog.Logger,
) *RiskService {
	return &RiskService{
		items:  items,
		users:  users,
		gate:   gate,
		bus:    bus,
		logger: logger.With(slog.String("component", "risk_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterItem creates (or replaces) an item profile with zeroed counters.
// The initial wear level is clamped into [0, MaxWearLevel].
func (s *RiskService) RegisterItem(ctx context.Context, tokenID, title string, wearLevel int) (RiskScore, error) {
	if tokenID == "" {
		return RiskScore{}, fmt.Errorf("register item: token_id: %w", domain.ErrValidation)
	}
	if wearLevel < 0 {
		wearLevel = 0
	}
	if wearLevel > domain.MaxWearLevel {
		wearLevel = domain.MaxWearLevel
	}

	p := domain.ItemProfile{TokenID: tokenID, Title: title, WearLevel: wearLevel}
	if err := s.items.Put(ctx, p); err != nil {
		return RiskScore{}, fmt.Errorf("risk_service: register item: %w", err)
	}

	score := p.RiskScore()
	s.logger.InfoContext(ctx, "item registered",
		slog.String("token_id", tokenID),
		slog.Int("wear_level", wearLevel),
		slog.Float64("risk_score", score),
	)
	return RiskScore{Score: score, Grade: domain.GradeFromScore(score)}, nil
}

// ApplyItemEvent appends the event to the item's log and applies the fixed
// per-kind counter rule. Unknown kinds are recorded but change nothing. Item
// events are never attestation-gated; the log is a plain audit trail.
func (s *RiskService) ApplyItemEvent(ctx context.Context, tokenID, eventType string, meta map[string]any) (RiskScore, error) {
	if tokenID == "" || eventType == "" {
		return RiskScore{}, fmt.Errorf("item event: token_id and event_type required: %w", domain.ErrValidation)
	}

	ev := domain.RiskEvent{Timestamp: s.now(), Type: eventType, Meta: meta}
	p, err := s.items.Mutate(ctx, tokenID, func(item *domain.ItemProfile) error {
		item.Events = append(item.Events, ev)
		applyItemCounters(item, eventType)
		return nil
	})
	if err != nil {
		return RiskScore{}, err
	}

	score := p.RiskScore()
	s.publish(ctx, "risk", map[string]any{
		"event":      "item_event",
		"token_id":   tokenID,
		"event_type": eventType,
		"risk_score": score,
	})
	return RiskScore{Score: score, Grade: domain.GradeFromScore(score), Events: len(p.Events)}, nil
}

// applyItemCounters mutates the profile counters for one event kind.
func applyItemCounters(p *domain.ItemProfile, eventType string) {
	bumpWear := func() {
		if p.WearLevel < domain.MaxWearLevel {
			p.WearLevel++
		}
	}
	switch eventType {
	case "cleaned":
		p.Cleans30d++
	case "delivery_late":
		p.LateDeliveries++
	case "returned":
		p.Returns++
	case "wear_plus":
		bumpWear()
	case "dirty_return":
		// A dirty return counts as a return and degrades condition.
		p.Returns++
		bumpWear()
	}
}

// ItemScore returns the item's current score and grade.
func (s *RiskService) ItemScore(ctx context.Context, tokenID string) (RiskScore, error) {
	p, err := s.items.GetByID(ctx, tokenID)
	if err != nil {
		return RiskScore{}, err
	}
	score := p.RiskScore()
	return RiskScore{Score: score, Grade: domain.GradeFromScore(score), Events: len(p.Events)}, nil
}

// ApplyUserEvent records the event on the (lazily created) user profile and,
// if the gate admits it, applies the kind's scoring effect. The append
// happens before the gate check, so refused attempts still leave an audit
// trail; a refusal returns ErrAttestationRequired with the score unchanged.
func (s *RiskService) ApplyUserEvent(ctx context.Context, userID, eventType string, meta map[string]any) (RiskScore, error) {
	if userID == "" || eventType == "" {
		return RiskScore{}, fmt.Errorf("user event: user_id and event_type required: %w", domain.ErrValidation)
	}

	ev := domain.RiskEvent{Timestamp: s.now(), Type: eventType, Meta: meta}
	p, err := s.users.Mutate(ctx, userID, func(user *domain.UserProfile) error {
		user.Events = append(user.Events, ev)
		return nil
	})
	if err != nil {
		return RiskScore{}, fmt.Errorf("risk_service: record user event: %w", err)
	}

	if s.gate.Required(eventType) && !s.gate.Verify(ctx, eventType, meta) {
		s.logger.WarnContext(ctx, "user event refused by attestation gate",
			slog.String("user_id", userID),
			slog.String("event_type", eventType),
		)
		return RiskScore{}, fmt.Errorf(
			"event %q needs an attestation proof (meta.fdc_proof=\"ok\" or meta.fdc.verified=true): %w",
			eventType, domain.ErrAttestationRequired,
		)
	}

	if effect, ok := userEventEffects[eventType]; ok {
		p, err = s.users.Mutate(ctx, userID, func(user *domain.UserProfile) error {
			switch effect.Kind {
			case Penalty:
				user.Score -= effect.Amount
			case Reward:
				user.Score += effect.Amount
			}
			user.Score = domain.ClampScore(user.Score)
			return nil
		})
		if err != nil {
			return RiskScore{}, fmt.Errorf("risk_service: apply user effect: %w", err)
		}
	}

	s.publish(ctx, "risk", map[string]any{
		"event":      "user_event",
		"user_id":    userID,
		"event_type": eventType,
		"user_score": p.Score,
	})
	return RiskScore{Score: p.Score, Grade: domain.GradeFromScore(p.Score), Events: len(p.Events)}, nil
}

// UserScore returns the user's current score and grade, creating the profile
// with the initial score when absent.
func (s *RiskService) UserScore(ctx context.Context, userID string) (RiskScore, error) {
	if userID == "" {
		return RiskScore{}, fmt.Errorf("user score: user_id: %w", domain.ErrValidation)
	}
	p, err := s.users.GetOrCreate(ctx, userID)
	if err != nil {
		return RiskScore{}, fmt.Errorf("risk_service: user score: %w", err)
	}
	score := domain.ClampScore(p.Score)
	return RiskScore{Score: score, Grade: domain.GradeFromScore(score), Events: len(p.Events)}, nil
}

// GateStatus reports whether attestation enforcement is on and which event
// kinds require which proof.
func (s *RiskService) GateStatus() (bool, map[string]string) {
	return s.gate.Enforced(), attest.RequiredProofs
}

func (s *RiskService) publish(ctx context.Context, channel string, msg map[string]any) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, channel, payload); err != nil {
		s.logger.DebugContext(ctx, "bus publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
