package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylelend/rentbond/internal/domain"
)

func newTestBond(bundle int) domain.Bond {
	now := time.Now().UTC()
	return domain.Bond{
		User:       "alice@example.com",
		BundleLeft: bundle,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.BondWindow),
		PricePaid:  298.15,
	}
}

func TestBondStoreSequentialIDs(t *testing.T) {
	store := NewBondStore()
	ctx := context.Background()

	first, err := store.Create(ctx, newTestBond(3))
	require.NoError(t, err)
	second, err := store.Create(ctx, newTestBond(3))
	require.NoError(t, err)

	assert.Equal(t, "BOND-000001", first.BondID)
	assert.Equal(t, "BOND-000002", second.BondID)
}

func TestBondStoreGetUnknown(t *testing.T) {
	store := NewBondStore()

	_, err := store.GetByID(context.Background(), "BOND-999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBondStoreMutateFailureLeavesRecord(t *testing.T) {
	store := NewBondStore()
	ctx := context.Background()

	b, err := store.Create(ctx, newTestBond(2))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Mutate(ctx, b.BondID, func(bond *domain.Bond) error {
		bond.BundleLeft = 0
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetByID(ctx, b.BondID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.BundleLeft)
}

func TestBondStoreConcurrentMutateNoLostUpdate(t *testing.T) {
	store := NewBondStore()
	ctx := context.Background()

	const bundle = 50
	b, err := store.Create(ctx, newTestBond(bundle))
	require.NoError(t, err)

	// Twice as many redeemers as rentals; exactly bundle must succeed.
	var wg sync.WaitGroup
	successes := make(chan struct{}, bundle*2)
	for i := 0; i < bundle*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(ctx, b.BondID, func(bond *domain.Bond) error {
				if bond.BundleLeft <= 0 {
					return domain.ErrBondExhausted
				}
				bond.BundleLeft--
				return nil
			})
			if err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	assert.Len(t, successes, bundle)

	got, err := store.GetByID(ctx, b.BondID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BundleLeft)
}
