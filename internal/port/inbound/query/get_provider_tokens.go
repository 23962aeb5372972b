package query

import (
	"context"

	"github.com/codecrunchr/credentials/internal/domain/model"
)

// GetProviderTokens asks for a currently-valid provider token pair for the
// session token's user, refreshing through the provider when the stored
// credential is close to expiry.
type GetProviderTokens struct {
	// SessionToken is the raw session JWT from the authorization header.
	SessionToken string
}

// GetProviderTokensHandler handles the GetProviderTokens query.
type GetProviderTokensHandler interface {
	Handle(ctx context.Context, q GetProviderTokens) (model.TokenPair, error)
}
