// Package memory implements the domain store interfaces with in-process maps.
// This is the default backing: the core targets single-process, best-effort
// semantics and keeps no state beyond process lifetime.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// QuoteStore implements domain.QuoteStore with a mutex-guarded map.
type QuoteStore struct {
	mu     sync.RWMutex
	seq    int
	quotes map[string]domain.Quote
}

// NewQuoteStore creates an empty QuoteStore.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]domain.Quote)}
}

// Create assigns the next sequential quote id and stores the record.
func (s *QuoteStore) Create(_ context.Context, q domain.Quote) (domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	q.QuoteID = fmt.Sprintf("QUOTE-%06d", s.seq)
	s.quotes[q.QuoteID] = q
	return q, nil
}

// Get returns the stored quote or domain.ErrNotFound. TTL evaluation is the
// quote service's job, not the store's.
func (s *QuoteStore) Get(_ context.Context, quoteID string) (domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[quoteID]
	if !ok {
		return domain.Quote{}, fmt.Errorf("quote %s: %w", quoteID, domain.ErrNotFound)
	}
	return q, nil
}

var _ domain.QuoteStore = (*QuoteStore)(nil)
