package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"
)

// userRepository implements repository.UserRepository.
type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO codecrunchr_users (id, created_at) VALUES ($1, $2)`,
		user.ID(), user.CreatedAt(),
	)
	return err
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM codecrunchr_users WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}
