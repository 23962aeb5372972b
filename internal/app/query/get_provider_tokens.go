package query

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"
	portcache "github.com/codecrunchr/credentials/internal/port/outbound/cache"
	"github.com/codecrunchr/credentials/internal/port/outbound/messaging"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
)

// DefaultEarlyExpirySkew is the safety margin subtracted from a token's
// literal expiry: a credential inside this window is refreshed proactively
// so it cannot expire mid-request.
const DefaultEarlyExpirySkew = 5 * time.Minute

// getProviderTokensHandler implements query.GetProviderTokensHandler.
// It is the end-to-end "give me a currently-valid provider credential for
// this session" path: identity cache, credential cache fast path, store
// load, decrypt, proactive refresh, transactional upsert, re-cache.
type getProviderTokensHandler struct {
	resolver       identityResolver
	tokenPairCache *TokenPairCache
	credentialRepo repository.CredentialRepository
	crypto         service.CryptoService
	provider       service.ProviderClient
	publisher      messaging.EventPublisher
	skew           time.Duration
	logger         *zap.Logger

	// refreshGroup collapses concurrent refreshes for the same credential
	// key into a single remote call whose result every waiter shares.
	refreshGroup singleflight.Group
}

// NewGetProviderTokensHandler creates a new GetProviderTokensHandler.
func NewGetProviderTokensHandler(
	identityCache *IdentityCache,
	tokenPairCache *TokenPairCache,
	blacklist portcache.TokenBlacklist,
	tokenService service.TokenService,
	credentialRepo repository.CredentialRepository,
	crypto service.CryptoService,
	provider service.ProviderClient,
	publisher messaging.EventPublisher,
	skew time.Duration,
	logger *zap.Logger,
) query.GetProviderTokensHandler {
	if skew <= 0 {
		skew = DefaultEarlyExpirySkew
	}
	return &getProviderTokensHandler{
		resolver: identityResolver{
			identityCache: identityCache,
			blacklist:     blacklist,
			tokenService:  tokenService,
		},
		tokenPairCache: tokenPairCache,
		credentialRepo: credentialRepo,
		crypto:         crypto,
		provider:       provider,
		publisher:      publisher,
		skew:           skew,
		logger:         logger,
	}
}

func (h *getProviderTokensHandler) Handle(ctx context.Context, q query.GetProviderTokens) (model.TokenPair, error) {
	ident, err := h.resolver.resolve(ctx, q.SessionToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Fast path: a cached pair whose own recorded expiry has not passed is
	// returned with no database or network access.
	if pair, ok := h.tokenPairCache.Get(q.SessionToken); ok && pair.ExpiresAt.After(time.Now()) {
		return pair, nil
	}

	cred, err := h.credentialRepo.Find(ctx, ident.UserID, model.ProviderWakatime)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A user who logged in once always has a row; absence means a
			// prior login failed to commit.
			h.logger.Error("credential row missing for logged-in user",
				zap.String("user_id", ident.UserID.String()),
			)
			return model.TokenPair{}, domainerror.ErrCredentialsNotFound
		}
		return model.TokenPair{}, err
	}

	accessToken, err := h.crypto.Decrypt(cred.AccessToken())
	if err != nil {
		return model.TokenPair{}, h.decryptFailure(ident, err)
	}
	refreshToken, err := h.crypto.Decrypt(cred.RefreshToken())
	if err != nil {
		return model.TokenPair{}, h.decryptFailure(ident, err)
	}

	expiresAt := cred.ExpiresAt()

	if cred.DueForRefresh(time.Now(), h.skew) {
		refreshed, err := h.refresh(ctx, ident.UserID, refreshToken)
		if err != nil {
			// Never hand out tokens we know are about to die.
			h.tokenPairCache.Remove(q.SessionToken)
			return model.TokenPair{}, err
		}
		accessToken = refreshed.AccessToken
		refreshToken = refreshed.RefreshToken
		expiresAt = refreshed.ExpiresAt
	}

	pair := model.TokenPair{
		UserID:       ident.UserID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	// The cache entry dies exactly when the refresh trigger would fire, so
	// a cached value can never bypass the proactive refresh window.
	h.tokenPairCache.Put(q.SessionToken, pair, expiresAt.Add(-h.skew))

	return pair, nil
}

// refresh performs the remote refresh exchange and persists the result.
// Concurrent callers for the same credential key share one remote call; the
// upsert is a single atomic statement, so even racing refreshes leave the
// row holding exactly one writer's values.
func (h *getProviderTokensHandler) refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*service.ProviderTokens, error) {
	key := userID.String() + "|" + model.ProviderWakatime.String()

	result, err, _ := h.refreshGroup.Do(key, func() (any, error) {
		tokens, err := h.provider.RefreshToken(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		encryptedAccess, err := h.crypto.Encrypt(tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		encryptedRefresh, err := h.crypto.Encrypt(tokens.RefreshToken)
		if err != nil {
			return nil, err
		}

		cred := model.NewProviderCredential(
			userID,
			model.ProviderWakatime,
			encryptedAccess,
			encryptedRefresh,
			tokens.ExpiresAt,
		)
		if err := h.credentialRepo.Upsert(ctx, cred); err != nil {
			return nil, err
		}

		h.logger.Debug("refreshed provider credential",
			zap.String("user_id", userID.String()),
			zap.Time("expires_at", tokens.ExpiresAt),
		)

		_ = h.publisher.Publish(ctx, event.NewCredentialRefreshed(userID, model.ProviderWakatime, tokens.ExpiresAt))

		return tokens, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*service.ProviderTokens), nil
}

func (h *getProviderTokensHandler) decryptFailure(ident model.SessionIdentity, err error) error {
	// Distinct from client-input errors: this is an operational alert about
	// the secret store, not something the caller can fix.
	h.logger.Error("stored credential failed decryption",
		zap.String("user_id", ident.UserID.String()),
		zap.Error(err),
	)
	return err
}
