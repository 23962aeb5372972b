package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external OAuth2 service a credential belongs to.
type Provider string

const (
	ProviderWakatime Provider = "wakatime"
)

func (p Provider) String() string {
	return string(p)
}

// ProviderCredential is one stored OAuth2 credential record per
// (user, provider) pair. Token fields hold ciphertext; plaintext tokens only
// ever live in memory as a TokenPair.
type ProviderCredential struct {
	userID       uuid.UUID
	provider     Provider
	accessToken  string // encrypted
	refreshToken string // encrypted
	expiresAt    time.Time
	updatedAt    time.Time
}

// NewProviderCredential creates a credential record from already-encrypted
// token material.
func NewProviderCredential(
	userID uuid.UUID,
	provider Provider,
	encryptedAccessToken string,
	encryptedRefreshToken string,
	expiresAt time.Time,
) *ProviderCredential {
	return &ProviderCredential{
		userID:       userID,
		provider:     provider,
		accessToken:  encryptedAccessToken,
		refreshToken: encryptedRefreshToken,
		expiresAt:    expiresAt,
		updatedAt:    time.Now().UTC(),
	}
}

// ReconstructProviderCredential creates a ProviderCredential from persisted
// data. Used by repository when loading from database.
func ReconstructProviderCredential(
	userID uuid.UUID,
	provider Provider,
	accessToken string,
	refreshToken string,
	expiresAt time.Time,
	updatedAt time.Time,
) *ProviderCredential {
	return &ProviderCredential{
		userID:       userID,
		provider:     provider,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
		updatedAt:    updatedAt,
	}
}

func (c *ProviderCredential) UserID() uuid.UUID    { return c.userID }
func (c *ProviderCredential) Provider() Provider   { return c.provider }
func (c *ProviderCredential) AccessToken() string  { return c.accessToken }
func (c *ProviderCredential) RefreshToken() string { return c.refreshToken }
func (c *ProviderCredential) ExpiresAt() time.Time { return c.expiresAt }
func (c *ProviderCredential) UpdatedAt() time.Time { return c.updatedAt }

// DueForRefresh reports whether the access token should be refreshed now.
// The skew pulls the trigger forward of the literal expiry instant so a token
// cannot expire mid-request.
func (c *ProviderCredential) DueForRefresh(now time.Time, skew time.Duration) bool {
	return !c.expiresAt.After(now.Add(skew))
}

// TokenPair is a decrypted, in-memory-only view of a user's provider tokens.
// Never persisted.
type TokenPair struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
