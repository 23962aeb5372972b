package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the root aggregate for a CodeCrunchr account. The ID is the
// provider-issued user ID obtained on first login; immutable thereafter.
type User struct {
	id        uuid.UUID
	createdAt time.Time
}

// NewUser creates a new User aggregate for a first-time login.
func NewUser(id uuid.UUID) *User {
	return &User{
		id:        id,
		createdAt: time.Now().UTC(),
	}
}

// ReconstructUser creates a User from persisted data (bypasses validation).
// Used by repository when loading from database.
func ReconstructUser(id uuid.UUID, createdAt time.Time) *User {
	return &User{
		id:        id,
		createdAt: createdAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) CreatedAt() time.Time { return u.createdAt }
