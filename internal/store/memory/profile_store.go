package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stylelend/rentbond/internal/domain"
)

// ItemProfileStore implements domain.ItemProfileStore.
type ItemProfileStore struct {
	mu    sync.RWMutex
	items map[string]domain.ItemProfile
}

// NewItemProfileStore creates an empty ItemProfileStore.
func NewItemProfileStore() *ItemProfileStore {
	return &ItemProfileStore{items: make(map[string]domain.ItemProfile)}
}

// Put stores the profile, replacing any previous registration.
func (s *ItemProfileStore) Put(_ context.Context, p domain.ItemProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.TokenID] = p
	return nil
}

// GetByID returns a copy of the stored profile or domain.ErrNotFound.
func (s *ItemProfileStore) GetByID(_ context.Context, tokenID string) (domain.ItemProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[tokenID]
	if !ok {
		return domain.ItemProfile{}, fmt.Errorf("item %s: %w", tokenID, domain.ErrNotFound)
	}
	return p, nil
}

// Mutate runs fn against the stored profile under the store lock, serializing
// concurrent score updates for the same item.
func (s *ItemProfileStore) Mutate(_ context.Context, tokenID string, fn func(*domain.ItemProfile) error) (domain.ItemProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[tokenID]
	if !ok {
		return domain.ItemProfile{}, fmt.Errorf("item %s: %w", tokenID, domain.ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return domain.ItemProfile{}, err
	}
	s.items[tokenID] = p
	return p, nil
}

var _ domain.ItemProfileStore = (*ItemProfileStore)(nil)

// UserProfileStore implements domain.UserProfileStore. Profiles are created
// lazily with the documented initial score on first access.
type UserProfileStore struct {
	mu    sync.RWMutex
	users map[string]domain.UserProfile
}

// NewUserProfileStore creates an empty UserProfileStore.
func NewUserProfileStore() *UserProfileStore {
	return &UserProfileStore{users: make(map[string]domain.UserProfile)}
}

func newUserProfile(userID string) domain.UserProfile {
	return domain.UserProfile{UserID: userID, Score: domain.InitialUserScore}
}

// GetOrCreate returns the existing profile, or creates and returns a fresh
// one with the initial score.
func (s *UserProfileStore) GetOrCreate(_ context.Context, userID string) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[userID]
	if !ok {
		p = newUserProfile(userID)
		s.users[userID] = p
	}
	return p, nil
}

// Mutate runs fn against the stored profile (creating it if absent) under the
// store lock. When fn fails the stored record is untouched.
func (s *UserProfileStore) Mutate(_ context.Context, userID string, fn func(*domain.UserProfile) error) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[userID]
	if !ok {
		p = newUserProfile(userID)
		s.users[userID] = p
	}
	if err := fn(&p); err != nil {
		return domain.UserProfile{}, err
	}
	s.users[userID] = p
	return p, nil
}

var _ domain.UserProfileStore = (*UserProfileStore)(nil)
