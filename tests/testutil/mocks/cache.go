package mocks

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist is a mock implementation of cache.TokenBlacklist.
type TokenBlacklist struct {
	mu sync.Mutex

	// Blacklisted token IDs with their expiry
	entries map[string]time.Time

	// Call tracking
	Calls struct {
		Add           int
		IsBlacklisted int
	}

	// Error injection
	Errors struct {
		Add           error
		IsBlacklisted error
	}
}

// NewTokenBlacklist creates a new mock TokenBlacklist.
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{
		entries: make(map[string]time.Time),
	}
}

func (m *TokenBlacklist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Add++

	if m.Errors.Add != nil {
		return m.Errors.Add
	}

	m.entries[tokenID] = time.Now().Add(ttl)
	return nil
}

func (m *TokenBlacklist) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	// Full lock: the call counter is a write even on read paths.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.IsBlacklisted++

	if m.Errors.IsBlacklisted != nil {
		return false, m.Errors.IsBlacklisted
	}

	expiry, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	return expiry.After(time.Now()), nil
}
