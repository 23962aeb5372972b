package query

import (
	"context"

	"github.com/google/uuid"
)

// GetCurrentUser resolves a session token to the user identity embedded in
// it, without touching provider credentials.
type GetCurrentUser struct {
	// SessionToken is the raw session JWT from the authorization header.
	SessionToken string
}

// GetCurrentUserHandler handles the GetCurrentUser query.
type GetCurrentUserHandler interface {
	Handle(ctx context.Context, q GetCurrentUser) (uuid.UUID, error)
}
