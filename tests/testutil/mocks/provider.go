package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/app/service"
	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
)

// ProviderClient is a mock implementation of service.ProviderClient.
type ProviderClient struct {
	mu sync.RWMutex

	// Canned responses
	ExchangeResult *service.ProviderTokens
	RefreshResult  *service.ProviderTokens
	Profiles       map[uuid.UUID]*service.ProviderProfile

	// RefreshDelay stalls RefreshToken before it touches any state, letting
	// tests hold several callers in flight at once.
	RefreshDelay time.Duration

	// Call tracking
	Calls struct {
		ExchangeCode int
		RefreshToken int
		RevokeToken  int
		CurrentUser  int
		User         int
	}

	// Error injection
	Errors struct {
		ExchangeCode error
		RefreshToken error
		RevokeToken  error
		CurrentUser  error
		User         error
	}

	// Arguments of the last calls
	LastRefreshToken string
	LastRevokedToken string
	LastRevokedAll   bool
}

// NewProviderClient creates a new mock ProviderClient.
func NewProviderClient() *ProviderClient {
	return &ProviderClient{
		Profiles: make(map[uuid.UUID]*service.ProviderProfile),
	}
}

func (m *ProviderClient) ExchangeCode(ctx context.Context, code string) (*service.ProviderTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.ExchangeCode++

	if m.Errors.ExchangeCode != nil {
		return nil, m.Errors.ExchangeCode
	}
	return m.ExchangeResult, nil
}

func (m *ProviderClient) RefreshToken(ctx context.Context, refreshToken string) (*service.ProviderTokens, error) {
	if m.RefreshDelay > 0 {
		time.Sleep(m.RefreshDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.RefreshToken++
	m.LastRefreshToken = refreshToken

	if m.Errors.RefreshToken != nil {
		return nil, m.Errors.RefreshToken
	}
	return m.RefreshResult, nil
}

func (m *ProviderClient) RevokeToken(ctx context.Context, token string, all bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.RevokeToken++
	m.LastRevokedToken = token
	m.LastRevokedAll = all

	return m.Errors.RevokeToken
}

func (m *ProviderClient) CurrentUser(ctx context.Context, accessToken string) (*service.ProviderProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.CurrentUser++

	if m.Errors.CurrentUser != nil {
		return nil, m.Errors.CurrentUser
	}

	for _, p := range m.Profiles {
		return p, nil
	}
	return nil, domainerror.ErrUserNotFound
}

func (m *ProviderClient) User(ctx context.Context, accessToken string, userID uuid.UUID) (*service.ProviderProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.User++

	if m.Errors.User != nil {
		return nil, m.Errors.User
	}

	p, ok := m.Profiles[userID]
	if !ok {
		return nil, domainerror.ErrUserNotFound
	}
	return p, nil
}
