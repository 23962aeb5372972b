package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"
)

// credentialRepository implements repository.CredentialRepository.
type credentialRepository struct {
	db DBTX
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db DBTX) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

// Upsert is one atomic statement keyed on the pk_provider_per_user
// constraint: concurrent writers for the same (user, provider) pair
// serialize at the row and the stored record is always one writer's values,
// never a mixture.
func (r *credentialRepository) Upsert(ctx context.Context, cred *model.ProviderCredential) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO codecrunchr_oauth (user_id, provider, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT pk_provider_per_user DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at    = EXCLUDED.expires_at,
			updated_at    = EXCLUDED.updated_at`,
		cred.UserID(),
		cred.Provider().String(),
		cred.AccessToken(),
		cred.RefreshToken(),
		cred.ExpiresAt(),
		cred.UpdatedAt(),
	)
	return err
}

func (r *credentialRepository) Find(ctx context.Context, userID uuid.UUID, provider model.Provider) (*model.ProviderCredential, error) {
	var (
		rowUserID    uuid.UUID
		rowProvider  string
		accessToken  string
		refreshToken string
		expiresAt    time.Time
		updatedAt    time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT user_id, provider, access_token, refresh_token, expires_at, updated_at
		FROM codecrunchr_oauth
		WHERE user_id = $1 AND provider = $2`,
		userID, provider.String(),
	).Scan(&rowUserID, &rowProvider, &accessToken, &refreshToken, &expiresAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return model.ReconstructProviderCredential(
		rowUserID,
		model.Provider(rowProvider),
		accessToken,
		refreshToken,
		expiresAt,
		updatedAt,
	), nil
}
