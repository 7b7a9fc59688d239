package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const balanceTTL = 5 * time.Minute

// BalanceCache implements ports.BalanceCache. Values are display copies only.
// Key format: balance:<user_id>
type BalanceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewBalanceCache(client redis.Cmdable) *BalanceCache {
	return &BalanceCache{client: client, ttl: balanceTTL}
}

func (c *BalanceCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	v, err := c.client.Get(ctx, c.key(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("balance cache get: %w", err)
	}
	return v, true, nil
}

func (c *BalanceCache) Set(ctx context.Context, userID string, balance int64) error {
	if err := c.client.Set(ctx, c.key(userID), balance, c.ttl).Err(); err != nil {
		return fmt.Errorf("balance cache set: %w", err)
	}
	return nil
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("balance cache invalidate: %w", err)
	}
	return nil
}

func (c *BalanceCache) key(userID string) string {
	return "balance:" + userID
}
