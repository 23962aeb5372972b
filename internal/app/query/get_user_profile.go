package query

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/outbound/messaging"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
)

// DefaultProfileMaxAge is how long a locally cached provider profile is
// served before it is re-fetched.
const DefaultProfileMaxAge = 10 * time.Minute

// getUserProfileHandler implements query.GetUserProfileHandler.
type getUserProfileHandler struct {
	providerTokens query.GetProviderTokensHandler
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	provider       service.ProviderClient
	publisher      messaging.EventPublisher
	maxAge         time.Duration
	logger         *zap.Logger
}

// NewGetUserProfileHandler creates a new GetUserProfileHandler.
func NewGetUserProfileHandler(
	providerTokens query.GetProviderTokensHandler,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	provider service.ProviderClient,
	publisher messaging.EventPublisher,
	maxAge time.Duration,
	logger *zap.Logger,
) query.GetUserProfileHandler {
	if maxAge <= 0 {
		maxAge = DefaultProfileMaxAge
	}
	return &getUserProfileHandler{
		providerTokens: providerTokens,
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		provider:       provider,
		publisher:      publisher,
		maxAge:         maxAge,
		logger:         logger,
	}
}

func (h *getUserProfileHandler) Handle(ctx context.Context, q query.GetUserProfile) (*model.Profile, error) {
	tokens, err := h.providerTokens.Handle(ctx, query.GetProviderTokens{SessionToken: q.SessionToken})
	if err != nil {
		return nil, err
	}

	target := tokens.UserID
	if q.UserID != nil {
		target = *q.UserID
	}

	// Profiles are only served for accounts that exist here, so a stranger
	// cannot use us as a proxy into the provider's user directory.
	if target != tokens.UserID {
		exists, err := h.userRepo.Exists(ctx, target)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domainerror.ErrUserNotFound
		}
	}

	profile, err := h.profileRepo.FindByUserID(ctx, target)
	switch {
	case err == nil && !profile.Stale(time.Now(), h.maxAge):
		return profile, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	return h.recache(ctx, tokens, target)
}

// recache fetches the profile from the provider and overwrites the local
// copy.
func (h *getUserProfileHandler) recache(ctx context.Context, tokens model.TokenPair, target uuid.UUID) (*model.Profile, error) {
	var (
		fetched *service.ProviderProfile
		err     error
	)
	if target == tokens.UserID {
		fetched, err = h.provider.CurrentUser(ctx, tokens.AccessToken)
	} else {
		fetched, err = h.provider.User(ctx, tokens.AccessToken, target)
	}
	if err != nil {
		return nil, err
	}

	profile, err := h.profileRepo.Upsert(ctx, model.NewProfile(
		fetched.ID,
		fetched.DisplayName,
		fetched.FullName,
		fetched.Username,
		fetched.PhotoURL,
		fetched.IsPhotoPublic,
		fetched.Email,
		fetched.Timezone,
	))
	if err != nil {
		return nil, err
	}

	h.logger.Debug("recached provider profile", zap.String("user_id", target.String()))

	_ = h.publisher.Publish(ctx, event.NewProfileRecached(target))

	return profile, nil
}
