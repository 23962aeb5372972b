package cache

import (
	"context"
	"time"
)

// TokenBlacklist defines the interface for blacklisting revoked session
// tokens. Used to invalidate tokens before their natural expiration.
type TokenBlacklist interface {
	// Add adds a token to the blacklist with TTL.
	// TTL should match the token's remaining lifetime.
	Add(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsBlacklisted checks if a token is blacklisted.
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}
