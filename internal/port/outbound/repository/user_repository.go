package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// UserRepository defines persistence operations for User aggregates.
type UserRepository interface {
	// Create persists a new user. Fails if the ID already exists.
	Create(ctx context.Context, user *model.User) error

	// Exists reports whether a user with the given ID exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
