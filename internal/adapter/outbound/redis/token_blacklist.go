// Package redis holds the redis-backed outbound adapters. The blacklist
// lives here rather than in process memory because a revoked token must stay
// dead across every instance until its exp claim takes over.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codecrunchr/credentials/internal/port/outbound/cache"
)

const tokenBlacklistKeyPrefix = "credentials:blacklist:"

// tokenBlacklist implements cache.TokenBlacklist on a shared redis instance.
// One key per revoked token ID; redis expiry does the cleanup, so an entry
// never outlives the token it blocks.
type tokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist creates a new TokenBlacklist.
func NewTokenBlacklist(client *redis.Client) cache.TokenBlacklist {
	return &tokenBlacklist{client: client}
}

func (b *tokenBlacklist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		// An empty ID would produce the bare prefix as a key.
		return nil
	}

	// Only key existence matters; the value is a placeholder.
	err := b.client.Set(ctx, tokenBlacklistKeyPrefix+tokenID, "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("blacklist token %s: %w", tokenID, err)
	}
	return nil
}

func (b *tokenBlacklist) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	count, err := b.client.Exists(ctx, tokenBlacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist for token %s: %w", tokenID, err)
	}
	return count > 0, nil
}
