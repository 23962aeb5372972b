package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// ProfileRepository defines persistence operations for cached provider
// profiles.
type ProfileRepository interface {
	// Upsert inserts or overwrites the profile row for its user and returns
	// the stored profile.
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)

	// FindByUserID loads the cached profile for a user.
	// Returns ErrNotFound if no row exists.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}
