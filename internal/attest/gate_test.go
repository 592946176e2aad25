package attest

import (
	"context"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateDisabledAlwaysPasses(t *testing.T) {
	g := NewGate(false, slog.Default())

	assert.True(t, g.Verify(context.Background(), "false_non_delivery", nil))
	assert.True(t, g.Verify(context.Background(), "good_return", map[string]any{}))
}

func TestGateUngatedEventPasses(t *testing.T) {
	g := NewGate(true, slog.Default())

	// not_returned is not in the required-proof table.
	assert.True(t, g.Verify(context.Background(), "not_returned", nil))
}

func TestGateFailsClosed(t *testing.T) {
	g := NewGate(true, slog.Default())
	ctx := context.Background()

	assert.False(t, g.Verify(ctx, "false_non_delivery", nil))
	assert.False(t, g.Verify(ctx, "false_non_delivery", map[string]any{}))
	assert.False(t, g.Verify(ctx, "false_non_delivery", map[string]any{"fdc_proof": "nope"}))
	assert.False(t, g.Verify(ctx, "false_non_delivery", map[string]any{"fdc_proof": 1}))
	assert.False(t, g.Verify(ctx, "dirty_return", map[string]any{"fdc": map[string]any{"verified": false}}))
	assert.False(t, g.Verify(ctx, "dirty_return", map[string]any{"fdc": "verified"}))
}

func TestGateAcceptsProofMarkers(t *testing.T) {
	g := NewGate(true, slog.Default())
	ctx := context.Background()

	assert.True(t, g.Verify(ctx, "false_non_delivery", map[string]any{"fdc_proof": "ok"}))
	assert.True(t, g.Verify(ctx, "good_return", map[string]any{"fdc": map[string]any{"verified": true}}))
}

func TestGateSignedProof(t *testing.T) {
	g := NewGate(true, slog.Default())
	g.UseConnectorSecret("shared-connector-secret")
	ctx := context.Background()

	base := time.Unix(1_780_000_000, 0)
	g.signer.now = func() time.Time { return base }

	ts := strconv.FormatInt(base.Unix(), 10)
	sig := g.signer.Sign("alice", "good_return", ts)

	assert.True(t, g.Verify(ctx, "good_return", map[string]any{
		"fdc_sig":  sig,
		"fdc_ts":   ts,
		"fdc_user": "alice",
	}))

	// Wrong user, wrong event, or tampered signature fails.
	assert.False(t, g.Verify(ctx, "good_return", map[string]any{
		"fdc_sig":  sig,
		"fdc_ts":   ts,
		"fdc_user": "bob",
	}))
	assert.False(t, g.Verify(ctx, "dirty_return", map[string]any{
		"fdc_sig":  sig,
		"fdc_ts":   ts,
		"fdc_user": "alice",
	}))
	assert.False(t, g.Verify(ctx, "good_return", map[string]any{
		"fdc_sig":  sig + "x",
		"fdc_ts":   ts,
		"fdc_user": "alice",
	}))

	// Stale timestamp fails even with a valid signature over it.
	staleTS := strconv.FormatInt(base.Add(-10*time.Minute).Unix(), 10)
	staleSig := g.signer.Sign("alice", "good_return", staleTS)
	assert.False(t, g.Verify(ctx, "good_return", map[string]any{
		"fdc_sig":  staleSig,
		"fdc_ts":   staleTS,
		"fdc_user": "alice",
	}))
}

func TestGateRequired(t *testing.T) {
	g := NewGate(true, slog.Default())

	assert.True(t, g.Required("good_return"))
	assert.True(t, g.Required("on_time_delivery_ack"))
	assert.False(t, g.Required("late_return"))
	assert.False(t, g.Required("unknown_kind"))
}
