package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stylelend/rentbond/internal/domain"
)

// expiredRetention is how long a quote record outlives its logical TTL. The
// grace window lets lookups report "expired" instead of "not found" for a
// while after the TTL lapses; only then does Redis reclaim the key.
const expiredRetention = 24 * time.Hour

// QuoteStore implements domain.QuoteStore on Redis. Records are JSON values
// keyed by quote id; the sequential id comes from an INCR counter so ids stay
// monotonic across processes sharing the instance.
type QuoteStore struct {
	rdb *redis.Client
}

// NewQuoteStore creates a QuoteStore backed by the given Client.
func NewQuoteStore(c *Client) *QuoteStore {
	return &QuoteStore{rdb: c.Underlying()}
}

func quoteKey(quoteID string) string {
	return "quote:" + quoteID
}

// Create allocates the next sequential quote id and stores the record with
// the retention TTL.
func (s *QuoteStore) Create(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	seq, err := s.rdb.Incr(ctx, "quote:seq").Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote seq: %w", err)
	}
	q.QuoteID = fmt.Sprintf("QUOTE-%06d", seq)

	payload, err := json.Marshal(q)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: marshal quote %s: %w", q.QuoteID, err)
	}
	retention := time.Until(q.ExpiresAt) + expiredRetention
	if err := s.rdb.Set(ctx, quoteKey(q.QuoteID), payload, retention).Err(); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: set quote %s: %w", q.QuoteID, err)
	}
	return q, nil
}

// Get returns the stored quote or domain.ErrNotFound. Logical TTL evaluation
// stays with the quote service.
func (s *QuoteStore) Get(ctx context.Context, quoteID string) (domain.Quote, error) {
	payload, err := s.rdb.Get(ctx, quoteKey(quoteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, fmt.Errorf("quote %s: %w", quoteID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s: %w", quoteID, err)
	}

	var q domain.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: unmarshal quote %s: %w", quoteID, err)
	}
	return q, nil
}

var _ domain.QuoteStore = (*QuoteStore)(nil)
