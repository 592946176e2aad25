package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stylelend/rentbond/internal/domain"
)

// HistoryStore implements domain.HistoryStore on PostgreSQL. Insertion order
// is preserved by the serial primary key.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given client.
func NewHistoryStore(c *Client) *HistoryStore {
	return &HistoryStore{pool: c.Pool()}
}

// Append inserts one audit log entry.
func (s *HistoryStore) Append(ctx context.Context, ev domain.RentalEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rental_history (type, "user", ts, token_id, location, bond_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.Type, ev.User, ev.Timestamp, ev.TokenID, ev.Location, ev.BondID,
	)
	if err != nil {
		return fmt.Errorf("postgres: append rental event: %w", err)
	}
	return nil
}

// List returns the full audit log in insertion order.
func (s *HistoryStore) List(ctx context.Context) ([]domain.RentalEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT type, "user", ts, token_id, location, bond_id
		FROM rental_history ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rental history: %w", err)
	}
	defer rows.Close()

	var out []domain.RentalEvent
	for rows.Next() {
		var ev domain.RentalEvent
		if err := rows.Scan(&ev.Type, &ev.User, &ev.Timestamp, &ev.TokenID, &ev.Location, &ev.BondID); err != nil {
			return nil, fmt.Errorf("postgres: scan rental event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list rental history: %w", err)
	}
	return out, nil
}

var _ domain.HistoryStore = (*HistoryStore)(nil)
