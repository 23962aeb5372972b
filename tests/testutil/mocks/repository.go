// Package mocks provides mock implementations of ports for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"
)

// --- UserRepository Mock ---

// UserRepository is a mock implementation of repository.UserRepository.
type UserRepository struct {
	mu sync.RWMutex

	// Storage
	users map[uuid.UUID]*model.User

	// Call tracking
	Calls struct {
		Create int
		Exists int
	}

	// Error injection
	Errors struct {
		Create error
		Exists error
	}
}

// NewUserRepository creates a new mock UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]*model.User),
	}
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Create++

	if m.Errors.Create != nil {
		return m.Errors.Create
	}

	m.users[user.ID()] = user
	return nil
}

func (m *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	// Full lock: the call counter is a write even on read paths.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Exists++

	if m.Errors.Exists != nil {
		return false, m.Errors.Exists
	}

	_, ok := m.users[id]
	return ok, nil
}

// Seed stores a user directly, bypassing call tracking.
func (m *UserRepository) Seed(user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID()] = user
}

// --- CredentialRepository Mock ---

type credentialKey struct {
	userID   uuid.UUID
	provider model.Provider
}

// CredentialRepository is a mock implementation of
// repository.CredentialRepository.
type CredentialRepository struct {
	mu sync.RWMutex

	// Storage
	credentials map[credentialKey]*model.ProviderCredential

	// Call tracking
	Calls struct {
		Upsert int
		Find   int
	}

	// Error injection
	Errors struct {
		Upsert error
		Find   error
	}
}

// NewCredentialRepository creates a new mock CredentialRepository.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{
		credentials: make(map[credentialKey]*model.ProviderCredential),
	}
}

func (m *CredentialRepository) Upsert(ctx context.Context, cred *model.ProviderCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Upsert++

	if m.Errors.Upsert != nil {
		return m.Errors.Upsert
	}

	m.credentials[credentialKey{cred.UserID(), cred.Provider()}] = cred
	return nil
}

func (m *CredentialRepository) Find(ctx context.Context, userID uuid.UUID, provider model.Provider) (*model.ProviderCredential, error) {
	// Full lock: the call counter is a write even on read paths.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Find++

	if m.Errors.Find != nil {
		return nil, m.Errors.Find
	}

	cred, ok := m.credentials[credentialKey{userID, provider}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cred, nil
}

// Seed stores a credential directly, bypassing call tracking.
func (m *CredentialRepository) Seed(cred *model.ProviderCredential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[credentialKey{cred.UserID(), cred.Provider()}] = cred
}

// Stored returns the stored credential, if any.
func (m *CredentialRepository) Stored(userID uuid.UUID, provider model.Provider) (*model.ProviderCredential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.credentials[credentialKey{userID, provider}]
	return cred, ok
}

// --- ProfileRepository Mock ---

// ProfileRepository is a mock implementation of repository.ProfileRepository.
type ProfileRepository struct {
	mu sync.RWMutex

	// Storage
	profiles map[uuid.UUID]*model.Profile

	// Call tracking
	Calls struct {
		Upsert       int
		FindByUserID int
	}

	// Error injection
	Errors struct {
		Upsert       error
		FindByUserID error
	}
}

// NewProfileRepository creates a new mock ProfileRepository.
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[uuid.UUID]*model.Profile),
	}
}

func (m *ProfileRepository) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Upsert++

	if m.Errors.Upsert != nil {
		return nil, m.Errors.Upsert
	}

	m.profiles[profile.UserID()] = profile
	return profile, nil
}

func (m *ProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	// Full lock: the call counter is a write even on read paths.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.FindByUserID++

	if m.Errors.FindByUserID != nil {
		return nil, m.Errors.FindByUserID
	}

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

// Seed stores a profile directly, bypassing call tracking.
func (m *ProfileRepository) Seed(profile *model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID()] = profile
}

// --- UnitOfWork Mock ---

// UnitOfWork is a mock implementation of repository.UnitOfWork. The callback
// runs against the supplied mock repositories; there is no real transaction,
// so error-path tests assert on call counts rather than rollbacks.
type UnitOfWork struct {
	Users       *UserRepository
	Credentials *CredentialRepository
	Profiles    *ProfileRepository

	// Call tracking
	Calls struct {
		WithinTx int
	}

	// Error injection
	Errors struct {
		WithinTx error
	}
}

// NewUnitOfWork creates a new mock UnitOfWork over fresh mock repositories.
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		Users:       NewUserRepository(),
		Credentials: NewCredentialRepository(),
		Profiles:    NewProfileRepository(),
	}
}

func (m *UnitOfWork) WithinTx(ctx context.Context, fn func(repos repository.Repos) error) error {
	m.Calls.WithinTx++

	if m.Errors.WithinTx != nil {
		return m.Errors.WithinTx
	}

	return fn(repository.Repos{
		Users:       m.Users,
		Credentials: m.Credentials,
		Profiles:    m.Profiles,
	})
}
