package domain

import "context"

// PointsLedger is the external rewards ledger collaborator. The core only
// performs flat add/subtract accounting against it; settlement semantics
// (on-chain or otherwise) live behind the implementation.
type PointsLedger interface {
	// Credit adds amount points to the user and returns the new balance.
	Credit(ctx context.Context, user string, amount int) (int, error)
	// Debit subtracts amount points; returns ErrInsufficientPoints when the
	// balance does not cover the amount.
	Debit(ctx context.Context, user string, amount int) (int, error)
	Balance(ctx context.Context, user string) (int, error)
}

// PriceFeed reads an external price/FX oracle. Read returns the feed value
// and a label describing where the value came from ("mock", "ftso", ...).
type PriceFeed interface {
	Read(ctx context.Context, feedID string) (float64, string, error)
}

// AttestationVerifier checks an external proof attached to an event. The
// check must be deterministic and side-effect free; the core trusts the
// boolean answer and never inspects proof material itself.
type AttestationVerifier interface {
	Verify(ctx context.Context, eventType string, meta map[string]any) bool
}
