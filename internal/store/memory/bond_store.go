package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// BondStore implements domain.BondStore with a mutex-guarded map. All
// mutations to a single bond are linearized: Mutate holds the store lock for
// the read-modify-write, so two concurrent redemptions can never both observe
// the same remaining count.
type BondStore struct {
	mu    sync.RWMutex
	seq   int
	bonds map[string]domain.Bond
}

// NewBondStore creates an empty BondStore.
func NewBondStore() *BondStore {
	return &BondStore{bonds: make(map[string]domain.Bond)}
}

// Create assigns the next sequential bond id and stores the record.
func (s *BondStore) Create(_ context.Context, b domain.Bond) (domain.Bond, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	b.BondID = fmt.Sprintf("BOND-%06d", s.seq)
	s.bonds[b.BondID] = b
	return b, nil
}

// GetByID returns a copy of the stored bond or domain.ErrNotFound.
func (s *BondStore) GetByID(_ context.Context, bondID string) (domain.Bond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bonds[bondID]
	if !ok {
		return domain.Bond{}, fmt.Errorf("bond %s: %w", bondID, domain.ErrNotFound)
	}
	return b, nil
}

// Mutate runs fn against the stored bond under the store lock and persists
// the result when fn succeeds. When fn fails the stored record is untouched.
func (s *BondStore) Mutate(_ context.Context, bondID string, fn func(*domain.Bond) error) (domain.Bond, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bonds[bondID]
	if !ok {
		return domain.Bond{}, fmt.Errorf("bond %s: %w", bondID, domain.ErrNotFound)
	}
	if err := fn(&b); err != nil {
		return domain.Bond{}, err
	}
	s.bonds[bondID] = b
	return b, nil
}

var _ domain.BondStore = (*BondStore)(nil)
