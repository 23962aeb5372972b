package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// CredentialRepository defines persistence operations for provider
// credentials. At most one record exists per (user, provider) pair; Upsert
// enforces that with a single atomic statement, so two writers racing on the
// same key serialize at the storage layer and the row always reflects exactly
// one writer's values.
type CredentialRepository interface {
	// Upsert inserts the credential or overwrites the existing row for its
	// (user, provider) key. Token fields must already be encrypted.
	Upsert(ctx context.Context, cred *model.ProviderCredential) error

	// Find loads the credential for a (user, provider) pair.
	// Returns ErrNotFound if no row exists.
	Find(ctx context.Context, userID uuid.UUID, provider model.Provider) (*model.ProviderCredential, error)
}
