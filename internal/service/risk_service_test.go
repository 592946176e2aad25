package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/attest"
	"github.com/stylelend/rentbond/internal/domain"
	"github.com/stylelend/rentbond/internal/store/memory"
)

func newRiskService(enforce bool) (*RiskService, *memory.UserProfileStore) {
	logger := slog.Default()
	users := memory.NewUserProfileStore()
	svc := NewRiskService(
		memory.NewItemProfileStore(),
		users,
		attest.NewGate(enforce, logger),
		nil,
		logger,
	)
	return svc, users
}

func TestRegisterItem(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	rs, err := svc.RegisterItem(ctx, "NFT-1", "denim jacket", 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rs.Score)
	assert.Equal(t, domain.GradeAAA, rs.Grade)

	// Wear beyond the cap is clamped.
	rs, err = svc.RegisterItem(ctx, "NFT-2", "worn coat", 9)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rs.Score)
	assert.Equal(t, domain.GradeB, rs.Grade)
}

func TestItemEventDirtyReturn(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	_, err := svc.RegisterItem(ctx, "NFT-1", "denim jacket", 0)
	require.NoError(t, err)

	// dirty_return counts a return and bumps wear: 100 - 4 - 10 = 86 -> AA.
	rs, err := svc.ApplyItemEvent(ctx, "NFT-1", "dirty_return", nil)
	require.NoError(t, err)
	assert.Equal(t, 86.0, rs.Score)
	assert.Equal(t, domain.GradeAA, rs.Grade)
	assert.Equal(t, 1, rs.Events)
}

func TestItemEventUnknownKindRecordedOnly(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	_, err := svc.RegisterItem(ctx, "NFT-1", "denim jacket", 0)
	require.NoError(t, err)

	rs, err := svc.ApplyItemEvent(ctx, "NFT-1", "reviewed", nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rs.Score)
	assert.Equal(t, 1, rs.Events)
}

func TestItemEventUnknownItem(t *testing.T) {
	svc, _ := newRiskService(false)

	_, err := svc.ApplyItemEvent(context.Background(), "NFT-404", "cleaned", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemScoreClampedUnderExtremes(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	_, err := svc.RegisterItem(ctx, "NFT-1", "denim jacket", 5)
	require.NoError(t, err)

	var last RiskScore
	for i := 0; i < 40; i++ {
		last, err = svc.ApplyItemEvent(ctx, "NFT-1", "dirty_return", nil)
		require.NoError(t, err)
		require.GreaterOrEqual(t, last.Score, 0.0)
		require.LessOrEqual(t, last.Score, 100.0)
	}
	assert.Equal(t, 0.0, last.Score)
	assert.Equal(t, domain.GradeD, last.Grade)
}

func TestUserEventPenaltyAndReward(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	// Starts at 85; late_return is an 8-point penalty.
	rs, err := svc.ApplyUserEvent(ctx, "bob@example.com", "late_return", nil)
	require.NoError(t, err)
	assert.Equal(t, 77.0, rs.Score)
	assert.Equal(t, domain.GradeA, rs.Grade)
	assert.Equal(t, 1, rs.Events)

	// good_return is a 2-point reward (gate disabled here).
	rs, err = svc.ApplyUserEvent(ctx, "bob@example.com", "good_return", nil)
	require.NoError(t, err)
	assert.Equal(t, 79.0, rs.Score)
	assert.Equal(t, 2, rs.Events)
}

func TestUserEventUnknownKindRecordedOnly(t *testing.T) {
	svc, _ := newRiskService(false)

	rs, err := svc.ApplyUserEvent(context.Background(), "bob@example.com", "window_shopped", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.InitialUserScore, rs.Score)
	assert.Equal(t, 1, rs.Events)
}

func TestUserScoreClampedUnderExtremes(t *testing.T) {
	svc, _ := newRiskService(false)
	ctx := context.Background()

	var rs RiskScore
	var err error
	for i := 0; i < 10; i++ {
		rs, err = svc.ApplyUserEvent(ctx, "bob@example.com", "not_returned", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, rs.Score)
	assert.Equal(t, domain.GradeD, rs.Grade)

	// Rewards never push past 100 either.
	for i := 0; i < 60; i++ {
		rs, err = svc.ApplyUserEvent(ctx, "carol@example.com", "good_return", nil)
		require.NoError(t, err)
		require.LessOrEqual(t, rs.Score, 100.0)
	}
	assert.Equal(t, 100.0, rs.Score)
}

func TestUserEventGatedWithoutProof(t *testing.T) {
	svc, users := newRiskService(true)
	ctx := context.Background()

	_, err := svc.ApplyUserEvent(ctx, "bob@example.com", "false_non_delivery", nil)
	require.ErrorIs(t, err, domain.ErrAttestationRequired)

	// The refused attempt is still on the audit trail; the score is untouched.
	p, err := users.GetOrCreate(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Len(t, p.Events, 1)
	assert.Equal(t, domain.InitialUserScore, p.Score)
}

func TestUserEventGatedWithProof(t *testing.T) {
	svc, _ := newRiskService(true)
	ctx := context.Background()

	rs, err := svc.ApplyUserEvent(ctx, "bob@example.com", "false_non_delivery",
		map[string]any{"fdc_proof": "ok"})
	require.NoError(t, err)
	assert.Equal(t, 73.0, rs.Score) // 85 - 12

	rs, err = svc.ApplyUserEvent(ctx, "bob@example.com", "good_return",
		map[string]any{"fdc": map[string]any{"verified": true}})
	require.NoError(t, err)
	assert.Equal(t, 75.0, rs.Score)
}

func TestUserScoreLazyCreation(t *testing.T) {
	svc, _ := newRiskService(false)

	rs, err := svc.UserScore(context.Background(), "fresh@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialUserScore, rs.Score)
	assert.Equal(t, domain.GradeAA, rs.Grade)
	assert.Equal(t, 0, rs.Events)
}

func TestGateStatus(t *testing.T) {
	svc, _ := newRiskService(true)

	enforced, required := svc.GateStatus()
	assert.True(t, enforced)
	assert.Equal(t, "delivery_confirmed", required["false_non_delivery"])
	assert.Contains(t, required, "dirty_return")
}
