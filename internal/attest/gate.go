// Package attest implements the attestation gate: a policy layer that decides
// which user events need an external data-connector proof before they may
// affect a reliability score.
package attest

import (
	"context"
	"log/slog"
)

// RequiredProofs maps gated user event types to the attestation kind the
// external connector is expected to have produced for them.
var RequiredProofs = map[string]string{
	// delivery related
	"false_non_delivery":   "delivery_confirmed",
	"on_time_delivery_ack": "delivery_confirmed",
	// return / cleaning related
	"good_return":  "return_scanned",
	"dirty_return": "cleaning_scanned",
}

// Gate applies the proof policy in front of the risk engine. When enforcement
// is disabled every event passes; when enabled, gated events without a valid
// proof are refused (fail closed).
type Gate struct {
	enforce bool
	signer  *ProofSigner
	logger  *slog.Logger
}

// NewGate creates a Gate. enforce toggles proof enforcement.
func NewGate(enforce bool, logger *slog.Logger) *Gate {
	return &Gate{
		enforce: enforce,
		logger:  logger.With(slog.String("component", "attest_gate")),
	}
}

// UseConnectorSecret enables the signed-proof path: events carrying fdc_sig,
// fdc_ts, and fdc_user metadata are accepted when the signature verifies
// under the shared connector secret.
func (g *Gate) UseConnectorSecret(secret string) {
	if secret == "" {
		g.signer = nil
		return
	}
	g.signer = NewProofSigner(secret)
}

// Enforced reports whether proof enforcement is active.
func (g *Gate) Enforced() bool {
	return g.enforce
}

// Required reports whether the event type needs a proof at all.
func (g *Gate) Required(eventType string) bool {
	_, ok := RequiredProofs[eventType]
	return ok
}

// Verify checks the proof attached to an event. It returns true when the
// event may proceed. The check is deterministic and side-effect free: it
// only inspects the caller-supplied metadata for an explicit proof marker,
// either meta["fdc_proof"] == "ok" or meta["fdc"]["verified"] == true, or,
// when a connector secret is configured, a valid signature in
// meta["fdc_sig"] over meta["fdc_ts"] + meta["fdc_user"] + the event type.
// Anything else, including absent metadata, fails.
func (g *Gate) Verify(ctx context.Context, eventType string, meta map[string]any) bool {
	if !g.enforce {
		return true
	}
	if !g.Required(eventType) {
		return true
	}
	if meta == nil {
		g.logger.DebugContext(ctx, "gated event without metadata refused",
			slog.String("event_type", eventType),
		)
		return false
	}
	if proof, ok := meta["fdc_proof"].(string); ok && proof == "ok" {
		return true
	}
	if fdc, ok := meta["fdc"].(map[string]any); ok {
		if verified, ok := fdc["verified"].(bool); ok && verified {
			return true
		}
	}
	if g.signer != nil {
		sig, _ := meta["fdc_sig"].(string)
		ts, _ := meta["fdc_ts"].(string)
		user, _ := meta["fdc_user"].(string)
		if sig != "" && g.signer.Check(user, eventType, ts, sig) {
			return true
		}
	}
	return false
}
