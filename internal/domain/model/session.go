package model

import "github.com/google/uuid"

// SessionIdentity is the identity decoded from a session token. Cached per
// raw token string; identities are immutable once decoded, so entries carry
// no expiry and are dropped only on revocation.
type SessionIdentity struct {
	UserID  uuid.UUID
	TokenID string
}
