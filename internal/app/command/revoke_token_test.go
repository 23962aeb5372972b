package command

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/cache"
	"github.com/codecrunchr/credentials/internal/port/inbound/command"
	"github.com/codecrunchr/credentials/tests/testutil/mocks"
)

type revokeFixture struct {
	handler        command.RevokeTokenHandler
	identityCache  *cache.Cache[string, model.SessionIdentity]
	tokenPairCache *cache.Cache[string, model.TokenPair]
	blacklist      *mocks.TokenBlacklist
	tokens         service.TokenService
	credentialRepo *mocks.CredentialRepository
	crypto         service.CryptoService
	provider       *mocks.ProviderClient
	publisher      *mocks.EventPublisher

	userID       uuid.UUID
	sessionToken string
	tokenID      string
}

func newRevokeFixture(t *testing.T) *revokeFixture {
	t.Helper()

	tokens, err := service.NewTokenService(service.TokenConfig{
		Issuer:          "test",
		SessionDuration: time.Hour,
		SigningKey:      []byte("test-signing-key"),
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	crypto, err := service.NewCryptoService(bytes.Repeat([]byte("k"), 32))
	if err != nil {
		t.Fatalf("NewCryptoService: %v", err)
	}

	f := &revokeFixture{
		identityCache:  cache.New[string, model.SessionIdentity](),
		tokenPairCache: cache.New[string, model.TokenPair](),
		blacklist:      mocks.NewTokenBlacklist(),
		tokens:         tokens,
		credentialRepo: mocks.NewCredentialRepository(),
		crypto:         crypto,
		provider:       mocks.NewProviderClient(),
		publisher:      mocks.NewEventPublisher(),
		userID:         uuid.New(),
	}

	f.handler = NewRevokeTokenHandler(
		f.identityCache,
		f.tokenPairCache,
		f.blacklist,
		f.tokens,
		f.credentialRepo,
		f.crypto,
		f.provider,
		f.publisher,
		zap.NewNop(),
	)

	f.sessionToken, _, err = tokens.Issue(f.userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tokens.Validate(f.sessionToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	f.tokenID = claims.TokenID

	return f
}

func TestRevokeToken(t *testing.T) {
	f := newRevokeFixture(t)
	f.identityCache.Put(f.sessionToken, model.SessionIdentity{UserID: f.userID, TokenID: f.tokenID}, time.Time{})
	f.tokenPairCache.Put(f.sessionToken, model.TokenPair{UserID: f.userID}, time.Now().Add(time.Hour))

	err := f.handler.Handle(context.Background(), command.RevokeToken{SessionToken: f.sessionToken})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	revoked, err := f.blacklist.IsBlacklisted(context.Background(), f.tokenID)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !revoked {
		t.Error("token not blacklisted")
	}

	if _, ok := f.identityCache.Get(f.sessionToken); ok {
		t.Error("identity still cached")
	}
	if _, ok := f.tokenPairCache.Get(f.sessionToken); ok {
		t.Error("token pair still cached")
	}

	if got := f.publisher.EventsOfType(event.EventTypeTokenRevoked); len(got) != 1 {
		t.Errorf("TokenRevoked events = %d, want 1", len(got))
	}

	// Local logout leaves the provider untouched.
	if f.provider.Calls.RevokeToken != 0 {
		t.Errorf("provider RevokeToken calls = %d, want 0", f.provider.Calls.RevokeToken)
	}
}

func TestRevokeTokenInvalidToken(t *testing.T) {
	f := newRevokeFixture(t)

	err := f.handler.Handle(context.Background(), command.RevokeToken{SessionToken: "garbage"})
	if !errors.Is(err, domainerror.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
	if f.blacklist.Calls.Add != 0 {
		t.Errorf("blacklist Add calls = %d, want 0", f.blacklist.Calls.Add)
	}
}

func TestRevokeTokenWithProvider(t *testing.T) {
	seedCredential := func(t *testing.T, f *revokeFixture) {
		t.Helper()
		encryptedAccess, err := f.crypto.Encrypt("plain-access")
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		encryptedRefresh, err := f.crypto.Encrypt("plain-refresh")
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		f.credentialRepo.Seed(model.NewProviderCredential(
			f.userID, model.ProviderWakatime, encryptedAccess, encryptedRefresh, time.Now().Add(time.Hour),
		))
	}

	t.Run("revokes all provider tokens upstream", func(t *testing.T) {
		f := newRevokeFixture(t)
		seedCredential(t, f)

		err := f.handler.Handle(context.Background(), command.RevokeToken{
			SessionToken:   f.sessionToken,
			RevokeProvider: true,
		})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}

		if f.provider.Calls.RevokeToken != 1 {
			t.Fatalf("provider RevokeToken calls = %d, want 1", f.provider.Calls.RevokeToken)
		}
		if f.provider.LastRevokedToken != "plain-access" {
			t.Errorf("revoked token = %q, want plain-access", f.provider.LastRevokedToken)
		}
		if !f.provider.LastRevokedAll {
			t.Error("all = false, want true")
		}
	})

	t.Run("provider failure still kills the local session", func(t *testing.T) {
		f := newRevokeFixture(t)
		seedCredential(t, f)
		f.provider.Errors.RevokeToken = domainerror.ErrProviderUnavailable

		err := f.handler.Handle(context.Background(), command.RevokeToken{
			SessionToken:   f.sessionToken,
			RevokeProvider: true,
		})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}

		revoked, err := f.blacklist.IsBlacklisted(context.Background(), f.tokenID)
		if err != nil {
			t.Fatalf("IsBlacklisted: %v", err)
		}
		if !revoked {
			t.Error("token not blacklisted after provider failure")
		}
	})
}
