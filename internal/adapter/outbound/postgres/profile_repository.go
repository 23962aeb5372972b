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

// profileRepository implements repository.ProfileRepository.
type profileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db DBTX) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO codecrunchr_profiles
			(user_id, display_name, full_name, username, photo_url, is_photo_public, email, timezone, last_cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name    = EXCLUDED.display_name,
			full_name       = EXCLUDED.full_name,
			username        = EXCLUDED.username,
			photo_url       = EXCLUDED.photo_url,
			is_photo_public = EXCLUDED.is_photo_public,
			email           = EXCLUDED.email,
			timezone        = EXCLUDED.timezone,
			last_cached_at  = EXCLUDED.last_cached_at
		RETURNING user_id, display_name, full_name, username, photo_url, is_photo_public, email, timezone, last_cached_at`,
		profile.UserID(),
		profile.DisplayName(),
		profile.FullName(),
		profile.Username(),
		profile.PhotoURL(),
		profile.IsPhotoPublic(),
		profile.Email(),
		profile.Timezone(),
		profile.LastCachedAt(),
	)
	return scanProfile(row)
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, display_name, full_name, username, photo_url, is_photo_public, email, timezone, last_cached_at
		FROM codecrunchr_profiles
		WHERE user_id = $1`,
		userID,
	)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		userID        uuid.UUID
		displayName   string
		fullName      string
		username      string
		photoURL      string
		isPhotoPublic bool
		email         string
		timezone      string
		lastCachedAt  time.Time
	)
	if err := row.Scan(
		&userID,
		&displayName,
		&fullName,
		&username,
		&photoURL,
		&isPhotoPublic,
		&email,
		&timezone,
		&lastCachedAt,
	); err != nil {
		return nil, err
	}

	return model.ReconstructProfile(
		userID,
		displayName,
		fullName,
		username,
		photoURL,
		isPhotoPublic,
		email,
		timezone,
		lastCachedAt,
	), nil
}
