package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stylelend/rentbond/internal/domain"
)

// BondStore implements domain.BondStore on PostgreSQL. Per-bond mutual
// exclusion for Mutate is provided by a row lock (SELECT ... FOR UPDATE)
// inside a transaction.
type BondStore struct {
	pool *pgxpool.Pool
}

// NewBondStore creates a BondStore backed by the given client.
func NewBondStore(c *Client) *BondStore {
	return &BondStore{pool: c.Pool()}
}

// Create allocates the next sequential bond id and inserts the record.
func (s *BondStore) Create(ctx context.Context, b domain.Bond) (domain.Bond, error) {
	var seq int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('bond_seq')`).Scan(&seq); err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: allocate bond id: %w", err)
	}
	b.BondID = fmt.Sprintf("BOND-%06d", seq)

	params, err := json.Marshal(b.Params)
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: marshal bond params: %w", err)
	}
	redemptions, err := marshalRedemptions(b.Redemptions)
	if err != nil {
		return domain.Bond{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bonds (bond_id, "user", bundle_left, created_at, expires_at, price_paid, params, redemptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.BondID, b.User, b.BundleLeft, b.CreatedAt, b.ExpiresAt, b.PricePaid, params, redemptions,
	)
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: insert bond %s: %w", b.BondID, err)
	}
	return b, nil
}

// GetByID returns the stored bond or domain.ErrNotFound.
func (s *BondStore) GetByID(ctx context.Context, bondID string) (domain.Bond, error) {
	return scanBond(s.pool.QueryRow(ctx, `
		SELECT bond_id, "user", bundle_left, created_at, expires_at, price_paid, params, redemptions
		FROM bonds WHERE bond_id = $1`, bondID), bondID)
}

// Mutate loads the bond under a row lock, applies fn, and persists the result
// when fn returns nil. When fn returns an error the transaction is rolled
// back and the error is propagated unchanged.
func (s *BondStore) Mutate(ctx context.Context, bondID string, fn func(*domain.Bond) error) (domain.Bond, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: begin bond mutate: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBond(tx.QueryRow(ctx, `
		SELECT bond_id, "user", bundle_left, created_at, expires_at, price_paid, params, redemptions
		FROM bonds WHERE bond_id = $1 FOR UPDATE`, bondID), bondID)
	if err != nil {
		return domain.Bond{}, err
	}

	if err := fn(&b); err != nil {
		return domain.Bond{}, err
	}

	params, err := json.Marshal(b.Params)
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: marshal bond params: %w", err)
	}
	redemptions, err := marshalRedemptions(b.Redemptions)
	if err != nil {
		return domain.Bond{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE bonds
		SET "user" = $2, bundle_left = $3, created_at = $4, expires_at = $5, price_paid = $6, params = $7, redemptions = $8
		WHERE bond_id = $1`,
		b.BondID, b.User, b.BundleLeft, b.CreatedAt, b.ExpiresAt, b.PricePaid, params, redemptions,
	)
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: update bond %s: %w", bondID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: commit bond mutate %s: %w", bondID, err)
	}
	return b, nil
}

func marshalRedemptions(rs []domain.Redemption) ([]byte, error) {
	if rs == nil {
		rs = []domain.Redemption{}
	}
	out, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal redemptions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBond(row rowScanner, bondID string) (domain.Bond, error) {
	var (
		b           domain.Bond
		params      []byte
		redemptions []byte
	)
	err := row.Scan(&b.BondID, &b.User, &b.BundleLeft, &b.CreatedAt, &b.ExpiresAt, &b.PricePaid, &params, &redemptions)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bond{}, fmt.Errorf("bond %s: %w", bondID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: scan bond %s: %w", bondID, err)
	}
	if err := json.Unmarshal(params, &b.Params); err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: unmarshal bond params %s: %w", bondID, err)
	}
	if err := json.Unmarshal(redemptions, &b.Redemptions); err != nil {
		return domain.Bond{}, fmt.Errorf("postgres: unmarshal redemptions %s: %w", bondID, err)
	}
	return b, nil
}

var _ domain.BondStore = (*BondStore)(nil)
