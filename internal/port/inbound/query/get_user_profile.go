package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// GetUserProfile returns a user's provider profile, re-fetching it from the
// provider when the locally cached copy is stale.
type GetUserProfile struct {
	// SessionToken is the raw session JWT from the authorization header.
	SessionToken string

	// UserID is the profile to fetch. Nil means the current user.
	UserID *uuid.UUID
}

// GetUserProfileHandler handles the GetUserProfile query.
type GetUserProfileHandler interface {
	Handle(ctx context.Context, q GetUserProfile) (*model.Profile, error)
}
