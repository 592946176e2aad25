package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/pricing"
)

// QuoteResolver resolves a stored quote by id for purchase.
type QuoteResolver interface {
	Resolve(ctx context.Context, quoteID string) (domain.Quote, error)
}

// RedemptionResult is the outcome of a successful redemption.
type RedemptionResult struct {
	BundleLeft   int
	RewardPoints int
}

// BondService owns the bond ledger: purchases, the redemption state machine,
// and expiry enforcement. Each successful redemption credits a flat reward on
// the external points ledger and appends to the rental audit log.
type BondService struct {
	bonds   domain.BondStore
	quotes  QuoteResolver
	history domain.HistoryStore
	ledger  domain.PointsLedger
	bus     domain.SignalBus
	logger  *slog.Logger
	now     func() time.Time
}

// NewBondService creates a BondService. bus may be nil when event streaming
// is disabled.
func NewBondService(
	bonds domain.BondStore,
	quotes QuoteResolver,
	history domain.HistoryStore,
	ledger domain.PointsLedger,
	bus domain.SignalBus,
	logger *slog.Logger,
) *BondService {
	return &BondService{
		bonds:   bonds,
		quotes:  quotes,
		history: history,
		ledger:  ledger,
		bus:     bus,
		logger:  logger.With(slog.String("component", "bond_service")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Purchase creates an active bond. When quoteID is set, the stored quote's
// pricing and bundle count are authoritative and the request params are
// ignored; otherwise pricing is computed fresh from params.
func (s *BondService) Purchase(ctx context.Context, user string, params domain.PricingParams, quoteID string) (domain.Bond, error) {
	if user == "" {
		return domain.Bond{}, fmt.Errorf("purchase: user: %w", domain.ErrValidation)
	}

	var priced domain.Pricing
	if quoteID != "" {
		q, err := s.quotes.Resolve(ctx, quoteID)
		if err != nil {
			return domain.Bond{}, fmt.Errorf("purchase: %w", err)
		}
		priced = q.Pricing
		params = q.Params
	} else {
		if err := params.Validate(); err != nil {
			return domain.Bond{}, fmt.Errorf("purchase params: %w", err)
		}
		priced = pricing.Price(params)
	}

	now := s.now()
	b, err := s.bonds.Create(ctx, domain.Bond{
		User:       user,
		BundleLeft: params.BundleRentals,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.BondWindow),
		PricePaid:  priced.FairValue,
		Params:     params,
	})
	if err != nil {
		return domain.Bond{}, fmt.Errorf("bond_service: create: %w", err)
	}

	s.logger.InfoContext(ctx, "bond purchased",
		slog.String("bond_id", b.BondID),
		slog.String("user", user),
		slog.Int("bundle_rentals", b.BundleLeft),
		slog.Float64("price_paid", b.PricePaid),
		slog.Bool("from_quote", quoteID != ""),
	)
	s.publish(ctx, "bond", map[string]any{
		"event":   "bond_purchased",
		"bond_id": b.BondID,
		"user":    b.User,
		"bundle":  b.BundleLeft,
	})
	return b, nil
}

// Redeem consumes one rental from the bond's bundle. The decrement and the
// redemption append run under per-bond exclusion in the store, so concurrent
// redemptions can never drive the remaining count below zero. Exhausted is
// checked before Expired, matching the purchase-time ledger semantics.
func (s *BondService) Redeem(ctx context.Context, bondID, tokenID, location string) (RedemptionResult, error) {
	if bondID == "" || tokenID == "" {
		return RedemptionResult{}, fmt.Errorf("redeem: bond_id and token_id required: %w", domain.ErrValidation)
	}

	now := s.now()
	rec := domain.Redemption{Timestamp: now, TokenID: tokenID, Location: location}

	b, err := s.bonds.Mutate(ctx, bondID, func(bond *domain.Bond) error {
		if bond.BundleLeft <= 0 {
			return fmt.Errorf("bond %s: %w", bondID, domain.ErrBondExhausted)
		}
		if now.After(bond.ExpiresAt) {
			return fmt.Errorf("bond %s: %w", bondID, domain.ErrBondExpired)
		}
		bond.BundleLeft--
		bond.Redemptions = append(bond.Redemptions, rec)
		return nil
	})
	if err != nil {
		return RedemptionResult{}, err
	}

	// Reward credit and audit append happen after the redemption is applied.
	// The points ledger is an external collaborator; a failed credit is
	// logged, not rolled into the redemption outcome.
	balance, err := s.ledger.Credit(ctx, b.User, domain.RedemptionReward)
	if err != nil {
		s.logger.ErrorContext(ctx, "reward credit failed",
			slog.String("bond_id", bondID),
			slog.String("user", b.User),
			slog.String("error", err.Error()),
		)
	}

	if err := s.history.Append(ctx, domain.RentalEvent{
		Type:      "redeem",
		User:      b.User,
		Timestamp: rec.Timestamp,
		TokenID:   rec.TokenID,
		Location:  rec.Location,
		BondID:    bondID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "history append failed",
			slog.String("bond_id", bondID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "bond redeemed",
		slog.String("bond_id", bondID),
		slog.String("token_id", tokenID),
		slog.Int("bundle_left", b.BundleLeft),
	)
	s.publish(ctx, "bond", map[string]any{
		"event":       "bond_redeemed",
		"bond_id":     bondID,
		"user":        b.User,
		"token_id":    tokenID,
		"bundle_left": b.BundleLeft,
	})

	return RedemptionResult{BundleLeft: b.BundleLeft, RewardPoints: balance}, nil
}

// Get returns the full bond record.
func (s *BondService) Get(ctx context.Context, bondID string) (domain.Bond, error) {
	return s.bonds.GetByID(ctx, bondID)
}

// History returns the rental audit log in insertion order.
func (s *BondService) History(ctx context.Context) ([]domain.RentalEvent, error) {
	return s.history.List(ctx)
}

func (s *BondService) publish(ctx context.Context, channel string, msg map[string]any) {
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
