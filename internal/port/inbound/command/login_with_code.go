package command

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoginWithCode is the command to log a user in with an OAuth2 authorization
// code obtained from the provider's consent screen.
type LoginWithCode struct {
	// Code is the one-time authorization code to exchange for tokens.
	Code string
}

// LoginWithCodeResult is the result of a successful login.
type LoginWithCodeResult struct {
	// SessionToken is the signed session JWT the caller uses from now on.
	SessionToken string

	// SessionExpiresAt is when the session token expires.
	SessionExpiresAt time.Time

	// UserID is the authenticated user's ID.
	UserID uuid.UUID

	// NewUser reports whether this login created the account.
	NewUser bool
}

// LoginWithCodeHandler handles the LoginWithCode command.
type LoginWithCodeHandler interface {
	Handle(ctx context.Context, cmd LoginWithCode) (LoginWithCodeResult, error)
}
