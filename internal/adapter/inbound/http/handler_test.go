package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/model"
	"github.com/codecrunchr/credentials/internal/port/inbound/command"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
)

// Inbound port stubs.

type stubLogin struct {
	result command.LoginWithCodeResult
	err    error
	got    command.LoginWithCode
}

func (s *stubLogin) Handle(ctx context.Context, cmd command.LoginWithCode) (command.LoginWithCodeResult, error) {
	s.got = cmd
	return s.result, s.err
}

type stubRevoke struct {
	err error
	got command.RevokeToken
}

func (s *stubRevoke) Handle(ctx context.Context, cmd command.RevokeToken) error {
	s.got = cmd
	return s.err
}

type stubTokens struct {
	pair model.TokenPair
	err  error
}

func (s *stubTokens) Handle(ctx context.Context, q query.GetProviderTokens) (model.TokenPair, error) {
	return s.pair, s.err
}

type stubCurrentUser struct {
	userID uuid.UUID
	err    error
}

func (s *stubCurrentUser) Handle(ctx context.Context, q query.GetCurrentUser) (uuid.UUID, error) {
	return s.userID, s.err
}

type stubProfile struct {
	profile *model.Profile
	err     error
	got     query.GetUserProfile
}

func (s *stubProfile) Handle(ctx context.Context, q query.GetUserProfile) (*model.Profile, error) {
	s.got = q
	return s.profile, s.err
}

type handlerStubs struct {
	login       *stubLogin
	revoke      *stubRevoke
	tokens      *stubTokens
	currentUser *stubCurrentUser
	profile     *stubProfile
}

func newTestServer(t *testing.T) (*echo.Echo, *handlerStubs) {
	t.Helper()

	stubs := &handlerStubs{
		login:       &stubLogin{},
		revoke:      &stubRevoke{},
		tokens:      &stubTokens{},
		currentUser: &stubCurrentUser{},
		profile:     &stubProfile{},
	}

	e := echo.New()
	NewHandler(stubs.login, stubs.revoke, stubs.tokens, stubs.currentUser, stubs.profile).Register(e)

	return e, stubs
}

func doRequest(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("returns session on success", func(t *testing.T) {
		e, stubs := newTestServer(t)
		userID := uuid.New()
		stubs.login.result = command.LoginWithCodeResult{
			SessionToken:     "session-jwt",
			SessionExpiresAt: time.Now().Add(time.Hour),
			UserID:           userID,
			NewUser:          true,
		}

		rec := doRequest(e, http.MethodPost, "/login", "", `{"code":"the-code"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "the-code", stubs.login.got.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "session-jwt", body["session_token"])
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, true, body["new_user"])
	})

	t.Run("missing code maps to 400", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.login.err = domainerror.ErrAuthorizationCodeMissing

		rec := doRequest(e, http.MethodPost, "/login", "", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(domainerror.CodeAuthorizationMissing), body["code"])
	})
}

func TestRevokeTokenEndpoint(t *testing.T) {
	t.Run("passes bearer token and revoke flag", func(t *testing.T) {
		e, stubs := newTestServer(t)

		rec := doRequest(e, http.MethodPost, "/revoke_token", "session-jwt", `{"revoke_provider":true}`)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "session-jwt", stubs.revoke.got.SessionToken)
		assert.True(t, stubs.revoke.got.RevokeProvider)
	})

	t.Run("missing authorization header maps to 401", func(t *testing.T) {
		e, _ := newTestServer(t)

		rec := doRequest(e, http.MethodPost, "/revoke_token", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProviderTokensEndpoint(t *testing.T) {
	t.Run("never exposes the refresh token", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.tokens.pair = model.TokenPair{
			UserID:       uuid.New(),
			AccessToken:  "access",
			RefreshToken: "refresh-must-stay-private",
			ExpiresAt:    time.Now().Add(time.Hour),
		}

		rec := doRequest(e, http.MethodGet, "/tokens", "session-jwt", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "refresh-must-stay-private")
		assert.Contains(t, rec.Body.String(), `"access_token":"access"`)
	})

	t.Run("reauthentication maps to 401", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.tokens.err = domainerror.ErrReauthenticationRequired

		rec := doRequest(e, http.MethodGet, "/tokens", "session-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(domainerror.CodeReauthRequired), body["code"])
	})

	t.Run("integrity failure maps to 500", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.tokens.err = domainerror.ErrCredentialsNotFound

		rec := doRequest(e, http.MethodGet, "/tokens", "session-jwt", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("provider outage maps to 502", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.tokens.err = domainerror.ErrProviderUnavailable

		rec := doRequest(e, http.MethodGet, "/tokens", "session-jwt", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("unclassified error maps to opaque 500", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.tokens.err = assert.AnError

		rec := doRequest(e, http.MethodGet, "/tokens", "session-jwt", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})
}

func TestCurrentUserEndpoint(t *testing.T) {
	e, stubs := newTestServer(t)
	stubs.currentUser.userID = uuid.New()

	rec := doRequest(e, http.MethodGet, "/user", "session-jwt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), stubs.currentUser.userID.String())
}

func TestUserProfileEndpoint(t *testing.T) {
	t.Run("valid id is forwarded", func(t *testing.T) {
		e, stubs := newTestServer(t)
		target := uuid.New()
		stubs.profile.profile = model.NewProfile(target, "Ada", "Ada Lovelace", "ada", "", false, "", "")

		rec := doRequest(e, http.MethodGet, "/user/"+target.String(), "session-jwt", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, stubs.profile.got.UserID)
		assert.Equal(t, target, *stubs.profile.got.UserID)
	})

	t.Run("malformed id maps to 404", func(t *testing.T) {
		e, _ := newTestServer(t)

		rec := doRequest(e, http.MethodGet, "/user/not-a-uuid", "session-jwt", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown user maps to 404", func(t *testing.T) {
		e, stubs := newTestServer(t)
		stubs.profile.err = domainerror.ErrUserNotFound

		rec := doRequest(e, http.MethodGet, "/user/"+uuid.NewString(), "session-jwt", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	e, _ := newTestServer(t)

	t.Run("rejects non-bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects empty bearer value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer ")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
