package memory

import (
	"context"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// HistoryStore implements domain.HistoryStore as an append-only slice.
type HistoryStore struct {
	mu     sync.RWMutex
	events []domain.RentalEvent
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append records an event at the end of the log.
func (s *HistoryStore) Append(_ context.Context, ev domain.RentalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// List returns the events in insertion order.
func (s *HistoryStore) List(_ context.Context) ([]domain.RentalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RentalEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

var _ domain.HistoryStore = (*HistoryStore)(nil)
