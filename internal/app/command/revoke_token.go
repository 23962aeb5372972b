package command

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codecrunchr/credentials/internal/cache"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"
	portcache "github.com/codecrunchr/credentials/internal/port/outbound/cache"
	"github.com/codecrunchr/credentials/internal/port/outbound/messaging"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/port/inbound/command"
)

// revokeTokenHandler implements command.RevokeTokenHandler.
type revokeTokenHandler struct {
	identityCache  *cache.Cache[string, model.SessionIdentity]
	tokenPairCache *cache.Cache[string, model.TokenPair]
	blacklist      portcache.TokenBlacklist
	tokenService   service.TokenService
	credentialRepo repository.CredentialRepository
	crypto         service.CryptoService
	provider       service.ProviderClient
	publisher      messaging.EventPublisher
	logger         *zap.Logger
}

// NewRevokeTokenHandler creates a new RevokeTokenHandler.
func NewRevokeTokenHandler(
	identityCache *cache.Cache[string, model.SessionIdentity],
	tokenPairCache *cache.Cache[string, model.TokenPair],
	blacklist portcache.TokenBlacklist,
	tokenService service.TokenService,
	credentialRepo repository.CredentialRepository,
	crypto service.CryptoService,
	provider service.ProviderClient,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) command.RevokeTokenHandler {
	return &revokeTokenHandler{
		identityCache:  identityCache,
		tokenPairCache: tokenPairCache,
		blacklist:      blacklist,
		tokenService:   tokenService,
		credentialRepo: credentialRepo,
		crypto:         crypto,
		provider:       provider,
		publisher:      publisher,
		logger:         logger,
	}
}

func (h *revokeTokenHandler) Handle(ctx context.Context, cmd command.RevokeToken) error {
	claims, err := h.tokenService.Validate(cmd.SessionToken)
	if err != nil {
		return err
	}

	if cmd.RevokeProvider {
		// Best effort: a provider outage must not keep the local session
		// alive, so upstream revocation failures are logged and skipped.
		if err := h.revokeProviderTokens(ctx, claims.UserID); err != nil {
			h.logger.Warn("failed to revoke provider tokens",
				zap.String("user_id", claims.UserID.String()),
				zap.Error(err),
			)
		}
	}

	// Blacklist for the token's remaining lifetime; after that the exp
	// claim rejects it anyway.
	if ttl := time.Until(claims.ExpiresAt); ttl > 0 {
		if err := h.blacklist.Add(ctx, claims.TokenID, ttl); err != nil {
			return err
		}
	}

	h.identityCache.Remove(cmd.SessionToken)
	h.tokenPairCache.Remove(cmd.SessionToken)

	_ = h.publisher.Publish(ctx, event.NewTokenRevoked(claims.UserID, claims.TokenID))

	return nil
}

func (h *revokeTokenHandler) revokeProviderTokens(ctx context.Context, userID uuid.UUID) error {
	cred, err := h.credentialRepo.Find(ctx, userID, model.ProviderWakatime)
	if err != nil {
		return err
	}

	accessToken, err := h.crypto.Decrypt(cred.AccessToken())
	if err != nil {
		return err
	}

	return h.provider.RevokeToken(ctx, accessToken, true)
}
