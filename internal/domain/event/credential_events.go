package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// UserLoggedIn is emitted when a user completes the OAuth login flow.
type UserLoggedIn struct {
	BaseEvent
	UserID   uuid.UUID
	Provider model.Provider
	NewUser  bool
}

// NewUserLoggedIn creates a new UserLoggedIn event.
func NewUserLoggedIn(userID uuid.UUID, provider model.Provider, newUser bool) UserLoggedIn {
	return UserLoggedIn{
		BaseEvent: NewBaseEvent(EventTypeUserLoggedIn, userID, AggregateTypeUser),
		UserID:    userID,
		Provider:  provider,
		NewUser:   newUser,
	}
}

// CredentialRefreshed is emitted when a provider credential is rotated
// through the refresh exchange.
type CredentialRefreshed struct {
	BaseEvent
	UserID    uuid.UUID
	Provider  model.Provider
	ExpiresAt time.Time
}

// NewCredentialRefreshed creates a new CredentialRefreshed event.
func NewCredentialRefreshed(userID uuid.UUID, provider model.Provider, expiresAt time.Time) CredentialRefreshed {
	return CredentialRefreshed{
		BaseEvent: NewBaseEvent(EventTypeCredentialRefreshed, userID, AggregateTypeCredential),
		UserID:    userID,
		Provider:  provider,
		ExpiresAt: expiresAt,
	}
}

// TokenRevoked is emitted when a session token is explicitly logged out.
type TokenRevoked struct {
	BaseEvent
	UserID  uuid.UUID
	TokenID string
}

// NewTokenRevoked creates a new TokenRevoked event.
func NewTokenRevoked(userID uuid.UUID, tokenID string) TokenRevoked {
	return TokenRevoked{
		BaseEvent: NewBaseEvent(EventTypeTokenRevoked, userID, AggregateTypeUser),
		UserID:    userID,
		TokenID:   tokenID,
	}
}

// ProfileRecached is emitted when a user's provider profile is re-fetched.
type ProfileRecached struct {
	BaseEvent
	UserID uuid.UUID
}

// NewProfileRecached creates a new ProfileRecached event.
func NewProfileRecached(userID uuid.UUID) ProfileRecached {
	return ProfileRecached{
		BaseEvent: NewBaseEvent(EventTypeProfileRecached, userID, AggregateTypeUser),
		UserID:    userID,
	}
}
