package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
)

// TokenService handles session JWT generation and validation.
type TokenService interface {
	// Issue creates a new signed session token for a user.
	Issue(userID uuid.UUID) (token string, expiresAt time.Time, err error)

	// Validate verifies a session token's signature and structure and
	// returns the embedded claims. Pure verification, no side effects.
	Validate(token string) (*SessionClaims, error)
}

// SessionClaims contains the claims embedded in a session token.
type SessionClaims struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

// TokenConfig holds configuration for session token generation.
type TokenConfig struct {
	Issuer          string
	SessionDuration time.Duration
	SigningKey      []byte
}

// sessionTokenClaims is the wire shape of the JWT payload. The embedded
// identity is a required, explicitly validated field; a token without a
// parseable user_id never produces claims.
type sessionTokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// tokenService implements TokenService.
type tokenService struct {
	config TokenConfig
}

// NewTokenService creates a new TokenService. A missing signing key is a
// configuration error, not a per-request condition.
func NewTokenService(config TokenConfig) (TokenService, error) {
	if len(config.SigningKey) == 0 {
		return nil, errors.New("token service: signing key is required")
	}
	return &tokenService{config: config}, nil
}

func (s *tokenService) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.config.SessionDuration)

	claims := sessionTokenClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.SigningKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

func (s *tokenService) Validate(token string) (*SessionClaims, error) {
	claims := &sessionTokenClaims{}

	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return s.config.SigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, domainerror.ErrInvalidToken.WithCause(err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, domainerror.ErrInvalidToken.WithCause(err)
	}

	result := &SessionClaims{
		UserID:  userID,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
