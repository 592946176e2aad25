// Package ledger implements the external points-ledger collaborator. The
// default backing is a plain in-memory balance map ("offline mode"); the
// chain backing talks to the deployed points token instead.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// MemoryLedger implements domain.PointsLedger with a mutex-guarded balance map.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int)}
}

// Credit adds amount points and returns the new balance.
func (l *MemoryLedger) Credit(_ context.Context, user string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit %d: %w", amount, domain.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[user] += amount
	return l.balances[user], nil
}

// Debit subtracts amount points; the balance never goes negative.
func (l *MemoryLedger) Debit(_ context.Context, user string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, domain.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[user] < amount {
		return l.balances[user], fmt.Errorf("debit %d from %s: %w", amount, user, domain.ErrInsufficientPoints)
	}
	l.balances[user] -= amount
	return l.balances[user], nil
}

// Balance returns the user's current balance; unknown users hold zero.
func (l *MemoryLedger) Balance(_ context.Context, user string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[user], nil
}

var _ domain.PointsLedger = (*MemoryLedger)(nil)
