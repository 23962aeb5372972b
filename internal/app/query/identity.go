package query

import (
	"context"
	"time"

	"github.com/codecrunchr/credentials/internal/cache"
	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/model"
	portcache "github.com/codecrunchr/credentials/internal/port/outbound/cache"

	"github.com/codecrunchr/credentials/internal/app/service"
)

// IdentityCache memoizes decoded session identities keyed by the raw token
// string. Two tokens for the same user populate two independent entries;
// accepted redundancy, the key is the token.
type IdentityCache = cache.Cache[string, model.SessionIdentity]

// TokenPairCache memoizes decrypted provider token pairs keyed by the raw
// session token string. Values live in memory only.
type TokenPairCache = cache.Cache[string, model.TokenPair]

// zeroTime marks cache entries that never expire.
var zeroTime time.Time

// identityResolver resolves a raw session token to a SessionIdentity,
// consulting the cache before paying for signature verification, and the
// blacklist on every call so a revoked token dies on all instances.
type identityResolver struct {
	identityCache *IdentityCache
	blacklist     portcache.TokenBlacklist
	tokenService  service.TokenService
}

func (r *identityResolver) resolve(ctx context.Context, sessionToken string) (model.SessionIdentity, error) {
	ident, ok := r.identityCache.Get(sessionToken)
	if !ok {
		claims, err := r.tokenService.Validate(sessionToken)
		if err != nil {
			return model.SessionIdentity{}, err
		}

		ident = model.SessionIdentity{UserID: claims.UserID, TokenID: claims.TokenID}

		// No expiry: the decoded identity never changes. Revocation drops
		// the entry explicitly.
		r.identityCache.Put(sessionToken, ident, zeroTime)
	}

	revoked, err := r.blacklist.IsBlacklisted(ctx, ident.TokenID)
	if err != nil {
		return model.SessionIdentity{}, err
	}
	if revoked {
		r.identityCache.Remove(sessionToken)
		return model.SessionIdentity{}, domainerror.ErrTokenRevoked
	}

	return ident, nil
}
