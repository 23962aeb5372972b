package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/port/inbound/command"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
)

// Handler exposes the command and query handlers over HTTP.
type Handler struct {
	loginWithCode     command.LoginWithCodeHandler
	revokeToken       command.RevokeTokenHandler
	getProviderTokens query.GetProviderTokensHandler
	getCurrentUser    query.GetCurrentUserHandler
	getUserProfile    query.GetUserProfileHandler
}

// NewHandler creates a new Handler.
func NewHandler(
	loginWithCode command.LoginWithCodeHandler,
	revokeToken command.RevokeTokenHandler,
	getProviderTokens query.GetProviderTokensHandler,
	getCurrentUser query.GetCurrentUserHandler,
	getUserProfile query.GetUserProfileHandler,
) *Handler {
	return &Handler{
		loginWithCode:     loginWithCode,
		revokeToken:       revokeToken,
		getProviderTokens: getProviderTokens,
		getCurrentUser:    getCurrentUser,
		getUserProfile:    getUserProfile,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.POST("/login", h.Login)
	e.POST("/revoke_token", h.RevokeToken)
	e.GET("/tokens", h.ProviderTokens)
	e.GET("/user", h.CurrentUser)
	e.GET("/user/:id", h.UserProfile)
}

func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Code string `json:"code"`
}

type loginResponse struct {
	SessionToken     string    `json:"session_token"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
	UserID           string    `json:"user_id"`
	NewUser          bool      `json:"new_user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domainerror.ErrAuthorizationCodeMissing)
	}

	result, err := h.loginWithCode.Handle(c.Request().Context(), command.LoginWithCode{
		Code: req.Code,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		SessionToken:     result.SessionToken,
		SessionExpiresAt: result.SessionExpiresAt,
		UserID:           result.UserID.String(),
		NewUser:          result.NewUser,
	})
}

type revokeTokenRequest struct {
	RevokeProvider bool `json:"revoke_provider"`
}

func (h *Handler) RevokeToken(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return writeError(c, err)
	}

	var req revokeTokenRequest
	_ = c.Bind(&req) // body is optional

	if err := h.revokeToken.Handle(c.Request().Context(), command.RevokeToken{
		SessionToken:   token,
		RevokeProvider: req.RevokeProvider,
	}); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type providerTokensResponse struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) ProviderTokens(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return writeError(c, err)
	}

	pair, err := h.getProviderTokens.Handle(c.Request().Context(), query.GetProviderTokens{
		SessionToken: token,
	})
	if err != nil {
		return writeError(c, err)
	}

	// The refresh token never leaves the service.
	return c.JSON(http.StatusOK, providerTokensResponse{
		UserID:      pair.UserID.String(),
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt,
	})
}

type currentUserResponse struct {
	UserID string `json:"user_id"`
}

func (h *Handler) CurrentUser(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return writeError(c, err)
	}

	userID, err := h.getCurrentUser.Handle(c.Request().Context(), query.GetCurrentUser{
		SessionToken: token,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, currentUserResponse{UserID: userID.String()})
}

type profileResponse struct {
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	FullName      string    `json:"full_name"`
	Username      string    `json:"username"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	IsPhotoPublic bool      `json:"is_photo_public"`
	Email         string    `json:"email,omitempty"`
	Timezone      string    `json:"timezone,omitempty"`
	LastCachedAt  time.Time `json:"last_cached_at"`
}

func (h *Handler) UserProfile(c echo.Context) error {
	token, err := bearerToken(c)
	if err != nil {
		return writeError(c, err)
	}

	q := query.GetUserProfile{SessionToken: token}
	if raw := c.Param("id"); raw != "" && raw != "current" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return writeError(c, domainerror.ErrUserNotFound)
		}
		q.UserID = &id
	}

	profile, err := h.getUserProfile.Handle(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{
		UserID:        profile.UserID().String(),
		DisplayName:   profile.DisplayName(),
		FullName:      profile.FullName(),
		Username:      profile.Username(),
		PhotoURL:      profile.PhotoURL(),
		IsPhotoPublic: profile.IsPhotoPublic(),
		Email:         profile.Email(),
		Timezone:      profile.Timezone(),
		LastCachedAt:  profile.LastCachedAt(),
	})
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", domainerror.ErrInvalidToken
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", domainerror.ErrInvalidToken
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", domainerror.ErrInvalidToken
	}

	return token, nil
}
