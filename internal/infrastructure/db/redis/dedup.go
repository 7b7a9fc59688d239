package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const submissionTTL = 24 * time.Hour

// SubmissionGuard implements ports.SubmissionGuard with SETNX.
// Key format: submission:<user_id>:<idempotency_key>
type SubmissionGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewSubmissionGuard creates a SubmissionGuard wrapping the given Redis client.
func NewSubmissionGuard(client redis.Cmdable) *SubmissionGuard {
	return &SubmissionGuard{client: client, ttl: submissionTTL}
}

// Claim reports whether this is the first time key is seen for userID.
func (g *SubmissionGuard) Claim(ctx context.Context, userID, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(userID, key), time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("submission claim: %w", err)
	}
	return ok, nil
}

// Release deletes the claim for key. Releasing an unknown key is not an error.
func (g *SubmissionGuard) Release(ctx context.Context, userID, key string) error {
	if err := g.client.Del(ctx, g.key(userID, key)).Err(); err != nil {
		return fmt.Errorf("submission release: %w", err)
	}
	return nil
}

func (g *SubmissionGuard) key(userID, key string) string {
	return fmt.Sprintf("submission:%s:%s", userID, key)
}
