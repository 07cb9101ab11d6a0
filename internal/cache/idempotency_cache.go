package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IdempotencyCache remembers the response of a POS batch by its
// Idempotency-Key so a retried request replays the first result instead of
// applying the ledger mutations twice.
type IdempotencyCache struct {
	store Store
	ttl   time.Duration
}

// NewIdempotencyCache creates a new IdempotencyCache.
func NewIdempotencyCache(store Store, ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{store: store, ttl: ttl}
}

// key scopes the client key by endpoint and caller so keys cannot collide
// across users.
func (c *IdempotencyCache) key(endpoint string, userID int64, idemKey string) string {
	return fmt.Sprintf("pos:idem:%s:%d:%s", endpoint, userID, idemKey)
}

// Get loads a stored result into out. found is false on a miss.
func (c *IdempotencyCache) Get(ctx context.Context, endpoint string, userID int64, idemKey string, out interface{}) (bool, error) {
	raw, err := c.store.Get(ctx, c.key(endpoint, userID, idemKey))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return true, nil
}

// Put stores a result for the configured TTL.
func (c *IdempotencyCache) Put(ctx context.Context, endpoint string, userID int64, idemKey string, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return c.store.Set(ctx, c.key(endpoint, userID, idemKey), string(data), c.ttl)
}
