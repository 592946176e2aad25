package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/domain"
)

func TestItemProfileStoreRoundTrip(t *testing.T) {
	store := NewItemProfileStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.ItemProfile{TokenID: "NFT-1", Title: "denim jacket"}))

	got, err := store.GetByID(ctx, "NFT-1")
	require.NoError(t, err)
	assert.Equal(t, "denim jacket", got.Title)

	_, err = store.GetByID(ctx, "NFT-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemProfileStoreMutateUnknown(t *testing.T) {
	store := NewItemProfileStore()

	_, err := store.Mutate(context.Background(), "NFT-404", func(*domain.ItemProfile) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserProfileStoreLazyCreate(t *testing.T) {
	store := NewUserProfileStore()
	ctx := context.Background()

	p, err := store.GetOrCreate(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.InitialUserScore, p.Score)
	assert.Empty(t, p.Events)

	// Second call returns the same profile, not a reset one.
	_, err = store.Mutate(ctx, "bob@example.com", func(u *domain.UserProfile) error {
		u.Score = 70
		return nil
	})
	require.NoError(t, err)

	p, err = store.GetOrCreate(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, 70.0, p.Score)
}

func TestUserProfileStoreConcurrentMutateSerializes(t *testing.T) {
	store := NewUserProfileStore()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(ctx, "carol@example.com", func(u *domain.UserProfile) error {
				u.Score -= 0.5
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := store.GetOrCreate(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.InDelta(t, domain.InitialUserScore-n*0.5, p.Score, 1e-9)
}
