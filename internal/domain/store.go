package domain

import "context"

// QuoteStore persists open quotes. Implementations allocate the sequential
// quote id on Create. Get returns the stored record regardless of TTL; expiry
// is evaluated by the quote service so that lookups past the TTL can be
// reported as expired rather than absent.
type QuoteStore interface {
	Create(ctx context.Context, q Quote) (Quote, error)
	Get(ctx context.Context, quoteID string) (Quote, error)
}

// BondStore persists bonds. Implementations allocate the sequential bond id
// on Create. Mutate runs fn against the stored record under per-bond mutual
// exclusion and persists the result when fn returns nil; when fn returns an
// error the record is left untouched and the error is propagated unchanged.
type BondStore interface {
	Create(ctx context.Context, b Bond) (Bond, error)
	GetByID(ctx context.Context, bondID string) (Bond, error)
	Mutate(ctx context.Context, bondID string, fn func(*Bond) error) (Bond, error)
}

// ItemProfileStore persists item risk profiles.
type ItemProfileStore interface {
	Put(ctx context.Context, p ItemProfile) error
	GetByID(ctx context.Context, tokenID string) (ItemProfile, error)
	Mutate(ctx context.Context, tokenID string, fn func(*ItemProfile) error) (ItemProfile, error)
}

// UserProfileStore persists user risk profiles. Profiles are created lazily:
// GetOrCreate returns the existing profile or a fresh one with the documented
// initial score. Mutate follows the same contract as BondStore.Mutate and
// also creates the profile if absent.
type UserProfileStore interface {
	GetOrCreate(ctx context.Context, userID string) (UserProfile, error)
	Mutate(ctx context.Context, userID string, fn func(*UserProfile) error) (UserProfile, error)
}

// HistoryStore persists the append-only rental audit log in insertion order.
type HistoryStore interface {
	Append(ctx context.Context, ev RentalEvent) error
	List(ctx context.Context) ([]RentalEvent, error)
}
