package command

import (
	"context"

	"go.uber.org/zap"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/outbound/messaging"
	"github.com/codecrunchr/credentials/internal/port/outbound/repository"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/port/inbound/command"
)

// loginWithCodeHandler implements command.LoginWithCodeHandler.
type loginWithCodeHandler struct {
	uow          repository.UnitOfWork
	provider     service.ProviderClient
	crypto       service.CryptoService
	tokenService service.TokenService
	publisher    messaging.EventPublisher
	logger       *zap.Logger
}

// NewLoginWithCodeHandler creates a new LoginWithCodeHandler.
func NewLoginWithCodeHandler(
	uow repository.UnitOfWork,
	provider service.ProviderClient,
	crypto service.CryptoService,
	tokenService service.TokenService,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) command.LoginWithCodeHandler {
	return &loginWithCodeHandler{
		uow:          uow,
		provider:     provider,
		crypto:       crypto,
		tokenService: tokenService,
		publisher:    publisher,
		logger:       logger,
	}
}

func (h *loginWithCodeHandler) Handle(ctx context.Context, cmd command.LoginWithCode) (command.LoginWithCodeResult, error) {
	if cmd.Code == "" {
		return command.LoginWithCodeResult{}, domainerror.ErrAuthorizationCodeMissing
	}

	tokens, err := h.provider.ExchangeCode(ctx, cmd.Code)
	if err != nil {
		return command.LoginWithCodeResult{}, err
	}

	encryptedAccess, err := h.crypto.Encrypt(tokens.AccessToken)
	if err != nil {
		return command.LoginWithCodeResult{}, err
	}
	encryptedRefresh, err := h.crypto.Encrypt(tokens.RefreshToken)
	if err != nil {
		return command.LoginWithCodeResult{}, err
	}

	// User row and credential row commit as a unit. A user row without a
	// credential row would trip the integrity check on every later request.
	var newUser bool
	err = h.uow.WithinTx(ctx, func(repos repository.Repos) error {
		exists, err := repos.Users.Exists(ctx, tokens.UserID)
		if err != nil {
			return err
		}
		if !exists {
			if err := repos.Users.Create(ctx, model.NewUser(tokens.UserID)); err != nil {
				return err
			}
			newUser = true
		}

		return repos.Credentials.Upsert(ctx, model.NewProviderCredential(
			tokens.UserID,
			model.ProviderWakatime,
			encryptedAccess,
			encryptedRefresh,
			tokens.ExpiresAt,
		))
	})
	if err != nil {
		return command.LoginWithCodeResult{}, err
	}

	sessionToken, sessionExpiresAt, err := h.tokenService.Issue(tokens.UserID)
	if err != nil {
		return command.LoginWithCodeResult{}, err
	}

	h.logger.Info("user logged in",
		zap.String("user_id", tokens.UserID.String()),
		zap.Bool("new_user", newUser),
	)

	_ = h.publisher.Publish(ctx, event.NewUserLoggedIn(tokens.UserID, model.ProviderWakatime, newUser))

	return command.LoginWithCodeResult{
		SessionToken:     sessionToken,
		SessionExpiresAt: sessionExpiresAt,
		UserID:           tokens.UserID,
		NewUser:          newUser,
	}, nil
}
