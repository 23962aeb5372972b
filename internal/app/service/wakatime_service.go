package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
)

// ProviderTokens is the parsed result of a token exchange with the provider.
type ProviderTokens struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ProviderProfile is the subset of the provider's user object this service
// stores.
type ProviderProfile struct {
	ID            uuid.UUID
	DisplayName   string
	FullName      string
	Username      string
	PhotoURL      string
	IsPhotoPublic bool
	Email         string
	Timezone      string
}

// ProviderClient performs the remote OAuth2 exchanges against WakaTime.
// Every method makes exactly one attempt; retry policy belongs to callers.
type ProviderClient interface {
	// ExchangeCode exchanges a one-time authorization code for a token pair.
	ExchangeCode(ctx context.Context, code string) (*ProviderTokens, error)

	// RefreshToken exchanges a refresh token for a new access/refresh pair.
	// A provider rejection maps to ErrReauthenticationRequired so callers
	// never fall back to stale tokens.
	RefreshToken(ctx context.Context, refreshToken string) (*ProviderTokens, error)

	// RevokeToken revokes the given token upstream. With all set, every
	// token belonging to the token's owner is revoked.
	RevokeToken(ctx context.Context, token string, all bool) error

	// CurrentUser fetches the profile of the access token's owner.
	CurrentUser(ctx context.Context, accessToken string) (*ProviderProfile, error)

	// User fetches another user's profile. Returns ErrUserNotFound when the
	// provider knows no such user.
	User(ctx context.Context, accessToken string, userID uuid.UUID) (*ProviderProfile, error)
}

// WakatimeConfig holds the OAuth2 app registration for WakaTime.
type WakatimeConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// BaseURL and APIBaseURL override the production endpoints in tests.
	BaseURL    string
	APIBaseURL string
}

const (
	wakatimeBaseURL    = "https://wakatime.com"
	wakatimeAPIBaseURL = "https://wakatime.com/api/v1"
)

// wakatimeClient implements ProviderClient against the WakaTime API. The
// token endpoint answers with a URL-encoded body, not JSON; that wire format
// is owned by WakaTime and parsed verbatim here.
type wakatimeClient struct {
	config     WakatimeConfig
	baseURL    string
	apiBaseURL string
	client     *http.Client
}

// NewWakatimeClient creates a new ProviderClient for WakaTime.
func NewWakatimeClient(config WakatimeConfig) ProviderClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = wakatimeBaseURL
	}
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = wakatimeAPIBaseURL
	}

	return &wakatimeClient{
		config:     config,
		baseURL:    baseURL,
		apiBaseURL: apiBaseURL,
		client:     &http.Client{},
	}
}

func (c *wakatimeClient) ExchangeCode(ctx context.Context, code string) (*ProviderTokens, error) {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"redirect_uri":  {c.config.RedirectURI},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	}

	status, body, err := c.postForm(ctx, c.baseURL+"/oauth/token", data)
	if err != nil {
		return nil, domainerror.ErrProviderUnavailable.WithCause(err)
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, domainerror.ErrProviderUnavailable.WithCause(remoteStatusError(status, body))
	case status >= http.StatusMultipleChoices:
		return nil, domainerror.ErrCodeExchangeRejected.WithCause(remoteStatusError(status, body))
	}

	return parseTokenResponse(body)
}

func (c *wakatimeClient) RefreshToken(ctx context.Context, refreshToken string) (*ProviderTokens, error) {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"redirect_uri":  {c.config.RedirectURI},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	status, body, err := c.postForm(ctx, c.baseURL+"/oauth/token", data)
	if err != nil {
		return nil, domainerror.ErrProviderUnavailable.WithCause(err)
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, domainerror.ErrProviderUnavailable.WithCause(remoteStatusError(status, body))
	case status >= http.StatusMultipleChoices:
		// Revoked or expired refresh token. The user has to log in again.
		return nil, domainerror.ErrReauthenticationRequired.WithCause(remoteStatusError(status, body))
	}

	return parseTokenResponse(body)
}

func (c *wakatimeClient) RevokeToken(ctx context.Context, token string, all bool) error {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"token":         {token},
		"all":           {strconv.FormatBool(all)},
	}

	status, body, err := c.postForm(ctx, c.baseURL+"/oauth/revoke", data)
	if err != nil {
		return domainerror.ErrProviderUnavailable.WithCause(err)
	}

	if status >= http.StatusMultipleChoices {
		return domainerror.ErrProviderUnavailable.WithCause(remoteStatusError(status, body))
	}

	return nil
}

func (c *wakatimeClient) CurrentUser(ctx context.Context, accessToken string) (*ProviderProfile, error) {
	return c.fetchUser(ctx, accessToken, c.apiBaseURL+"/users/current")
}

func (c *wakatimeClient) User(ctx context.Context, accessToken string, userID uuid.UUID) (*ProviderProfile, error) {
	return c.fetchUser(ctx, accessToken, c.apiBaseURL+"/users/"+userID.String())
}

func (c *wakatimeClient) fetchUser(ctx context.Context, accessToken string, endpoint string) (*ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domainerror.ErrProviderUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domainerror.ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domainerror.ErrProviderUnavailable.WithCause(remoteStatusError(resp.StatusCode, string(body)))
	}

	var envelope struct {
		Data struct {
			ID            string `json:"id"`
			DisplayName   string `json:"display_name"`
			FullName      string `json:"full_name"`
			Username      string `json:"username"`
			Photo         string `json:"photo"`
			IsPhotoPublic bool   `json:"is_photo_public"`
			Email         string `json:"email"`
			Timezone      string `json:"timezone"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	id, err := uuid.Parse(envelope.Data.ID)
	if err != nil {
		return nil, fmt.Errorf("provider returned invalid user id %q: %w", envelope.Data.ID, err)
	}

	return &ProviderProfile{
		ID:            id,
		DisplayName:   envelope.Data.DisplayName,
		FullName:      envelope.Data.FullName,
		Username:      envelope.Data.Username,
		PhotoURL:      envelope.Data.Photo,
		IsPhotoPublic: envelope.Data.IsPhotoPublic,
		Email:         envelope.Data.Email,
		Timezone:      envelope.Data.Timezone,
	}, nil
}

func (c *wakatimeClient) postForm(ctx context.Context, endpoint string, data url.Values) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, string(body), nil
}

// parseTokenResponse parses WakaTime's URL-encoded token response into a
// ProviderTokens. All four fields are required.
func parseTokenResponse(body string) (*ProviderTokens, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	uid, err := uuid.Parse(values.Get("uid"))
	if err != nil {
		return nil, fmt.Errorf("token response has invalid uid %q: %w", values.Get("uid"), err)
	}

	accessToken := values.Get("access_token")
	refreshToken := values.Get("refresh_token")
	if accessToken == "" || refreshToken == "" {
		return nil, fmt.Errorf("token response missing token fields")
	}

	expiresAt, err := parseProviderTime(values.Get("expires_at"))
	if err != nil {
		return nil, fmt.Errorf("token response has invalid expires_at %q: %w", values.Get("expires_at"), err)
	}

	return &ProviderTokens{
		UserID:       uid,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// parseProviderTime accepts the timestamp shapes WakaTime has been observed
// to emit: RFC3339 with offset, and a bare ISO timestamp without one.
func parseProviderTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func remoteStatusError(status int, body string) error {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return fmt.Errorf("provider returned status %d: %s", status, body)
}
