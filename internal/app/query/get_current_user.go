package query

import (
	"context"

	"github.com/google/uuid"

	portcache "github.com/codecrunchr/credentials/internal/port/outbound/cache"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
)

// getCurrentUserHandler implements query.GetCurrentUserHandler.
type getCurrentUserHandler struct {
	resolver identityResolver
}

// NewGetCurrentUserHandler creates a new GetCurrentUserHandler.
func NewGetCurrentUserHandler(
	identityCache *IdentityCache,
	blacklist portcache.TokenBlacklist,
	tokenService service.TokenService,
) query.GetCurrentUserHandler {
	return &getCurrentUserHandler{
		resolver: identityResolver{
			identityCache: identityCache,
			blacklist:     blacklist,
			tokenService:  tokenService,
		},
	}
}

func (h *getCurrentUserHandler) Handle(ctx context.Context, q query.GetCurrentUser) (uuid.UUID, error) {
	ident, err := h.resolver.resolve(ctx, q.SessionToken)
	if err != nil {
		return uuid.Nil, err
	}
	return ident.UserID, nil
}
