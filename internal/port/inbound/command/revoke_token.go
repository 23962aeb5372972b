package command

import "context"

// RevokeToken is the command to log a session token out. The token is
// blacklisted for its remaining lifetime and its cache entries are dropped.
type RevokeToken struct {
	// SessionToken is the raw session JWT to revoke.
	SessionToken string

	// RevokeProvider also revokes the stored provider tokens upstream.
	RevokeProvider bool
}

// RevokeTokenHandler handles the RevokeToken command.
type RevokeTokenHandler interface {
	Handle(ctx context.Context, cmd RevokeToken) error
}
