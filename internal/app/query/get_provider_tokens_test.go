package query

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
	"github.com/codecrunchr/credentials/internal/domain/event"
	"github.com/codecrunchr/credentials/internal/domain/model"

	"github.com/codecrunchr/credentials/internal/app/service"
	"github.com/codecrunchr/credentials/internal/cache"
	"github.com/codecrunchr/credentials/internal/port/inbound/query"
	"github.com/codecrunchr/credentials/tests/testutil/mocks"
)

// tokensFixture bundles the collaborators of a GetProviderTokensHandler so a
// test can seed state and assert on calls.
type tokensFixture struct {
	handler        query.GetProviderTokensHandler
	identityCache  *IdentityCache
	tokenPairCache *TokenPairCache
	blacklist      *mocks.TokenBlacklist
	tokenService   service.TokenService
	credentialRepo *mocks.CredentialRepository
	crypto         service.CryptoService
	provider       *mocks.ProviderClient
	publisher      *mocks.EventPublisher

	userID       uuid.UUID
	sessionToken string
}

func newTokensFixture(t *testing.T) *tokensFixture {
	t.Helper()

	tokenService, err := service.NewTokenService(service.TokenConfig{
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

	f := &tokensFixture{
		identityCache:  cache.New[string, model.SessionIdentity](),
		tokenPairCache: cache.New[string, model.TokenPair](),
		blacklist:      mocks.NewTokenBlacklist(),
		tokenService:   tokenService,
		credentialRepo: mocks.NewCredentialRepository(),
		crypto:         crypto,
		provider:       mocks.NewProviderClient(),
		publisher:      mocks.NewEventPublisher(),
		userID:         uuid.New(),
	}

	f.handler = NewGetProviderTokensHandler(
		f.identityCache,
		f.tokenPairCache,
		f.blacklist,
		f.tokenService,
		f.credentialRepo,
		f.crypto,
		f.provider,
		f.publisher,
		DefaultEarlyExpirySkew,
		zap.NewNop(),
	)

	f.sessionToken, _, err = tokenService.Issue(f.userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	return f
}

// seedCredential stores an encrypted credential expiring at the given time.
func (f *tokensFixture) seedCredential(t *testing.T, expiresAt time.Time) {
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
		f.userID,
		model.ProviderWakatime,
		encryptedAccess,
		encryptedRefresh,
		expiresAt,
	))
}

func (f *tokensFixture) query() query.GetProviderTokens {
	return query.GetProviderTokens{SessionToken: f.sessionToken}
}

func TestGetProviderTokensFreshCredential(t *testing.T) {
	f := newTokensFixture(t)
	expiresAt := time.Now().Add(time.Hour)
	f.seedCredential(t, expiresAt)

	pair, err := f.handler.Handle(context.Background(), f.query())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if pair.UserID != f.userID {
		t.Errorf("UserID = %s, want %s", pair.UserID, f.userID)
	}
	if pair.AccessToken != "plain-access" {
		t.Errorf("AccessToken = %q, want plain-access", pair.AccessToken)
	}
	if pair.RefreshToken != "plain-refresh" {
		t.Errorf("RefreshToken = %q, want plain-refresh", pair.RefreshToken)
	}

	// An hour of slack means no refresh and no provider traffic at all.
	if f.provider.Calls.RefreshToken != 0 {
		t.Errorf("RefreshToken calls = %d, want 0", f.provider.Calls.RefreshToken)
	}
}

func TestGetProviderTokensCachedFastPath(t *testing.T) {
	f := newTokensFixture(t)
	f.seedCredential(t, time.Now().Add(time.Hour))

	if _, err := f.handler.Handle(context.Background(), f.query()); err != nil {
		t.Fatalf("first Handle: %v", err)
	}
	if _, err := f.handler.Handle(context.Background(), f.query()); err != nil {
		t.Fatalf("second Handle: %v", err)
	}

	// Second call is served from the pair cache without touching the store.
	if f.credentialRepo.Calls.Find != 1 {
		t.Errorf("Find calls = %d, want 1", f.credentialRepo.Calls.Find)
	}
}

func TestGetProviderTokensProactiveRefresh(t *testing.T) {
	f := newTokensFixture(t)
	// Expiring inside the 5-minute window: must be refreshed before handout.
	f.seedCredential(t, time.Now().Add(time.Minute))

	newExpiry := time.Now().Add(2 * time.Hour)
	f.provider.RefreshResult = &service.ProviderTokens{
		UserID:       f.userID,
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    newExpiry,
	}

	pair, err := f.handler.Handle(context.Background(), f.query())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if pair.AccessToken != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", pair.AccessToken)
	}
	if !pair.ExpiresAt.Equal(newExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", pair.ExpiresAt, newExpiry)
	}
	if f.provider.LastRefreshToken != "plain-refresh" {
		t.Errorf("refresh exchanged %q, want plain-refresh", f.provider.LastRefreshToken)
	}

	// The rotated pair is persisted encrypted.
	if f.credentialRepo.Calls.Upsert != 1 {
		t.Fatalf("Upsert calls = %d, want 1", f.credentialRepo.Calls.Upsert)
	}
	stored, ok := f.credentialRepo.Stored(f.userID, model.ProviderWakatime)
	if !ok {
		t.Fatal("no credential stored")
	}
	if stored.AccessToken() == "new-access" {
		t.Error("stored access token is plaintext")
	}
	decrypted, err := f.crypto.Decrypt(stored.AccessToken())
	if err != nil {
		t.Fatalf("Decrypt stored token: %v", err)
	}
	if decrypted != "new-access" {
		t.Errorf("stored access token decrypts to %q, want new-access", decrypted)
	}

	if got := f.publisher.EventsOfType(event.EventTypeCredentialRefreshed); len(got) != 1 {
		t.Errorf("CredentialRefreshed events = %d, want 1", len(got))
	}
}

func TestGetProviderTokensConcurrentRefresh(t *testing.T) {
	f := newTokensFixture(t)
	f.seedCredential(t, time.Now().Add(time.Minute))

	// Slow the exchange down so all callers arrive while it is in flight.
	f.provider.RefreshDelay = 100 * time.Millisecond
	f.provider.RefreshResult = &service.ProviderTokens{
		UserID:       f.userID,
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}

	const callers = 8

	var wg sync.WaitGroup
	results := make([]model.TokenPair, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.handler.Handle(context.Background(), f.query())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].AccessToken != "new-access" {
			t.Errorf("caller %d AccessToken = %q, want new-access", i, results[i].AccessToken)
		}
	}

	// All callers share one remote exchange and one write.
	if f.provider.Calls.RefreshToken != 1 {
		t.Errorf("RefreshToken calls = %d, want 1", f.provider.Calls.RefreshToken)
	}
	if f.credentialRepo.Calls.Upsert != 1 {
		t.Errorf("Upsert calls = %d, want 1", f.credentialRepo.Calls.Upsert)
	}
	if got := f.publisher.EventsOfType(event.EventTypeCredentialRefreshed); len(got) != 1 {
		t.Errorf("CredentialRefreshed events = %d, want 1", len(got))
	}
}

func TestGetProviderTokensRefreshRejected(t *testing.T) {
	f := newTokensFixture(t)
	f.seedCredential(t, time.Now().Add(time.Minute))
	f.provider.Errors.RefreshToken = domainerror.ErrReauthenticationRequired

	_, err := f.handler.Handle(context.Background(), f.query())
	if !errors.Is(err, domainerror.ErrReauthenticationRequired) {
		t.Fatalf("err = %v, want ErrReauthenticationRequired", err)
	}

	// A failed refresh never hands out the dying tokens or persists anything.
	if f.credentialRepo.Calls.Upsert != 0 {
		t.Errorf("Upsert calls = %d, want 0", f.credentialRepo.Calls.Upsert)
	}
	if _, ok := f.tokenPairCache.Get(f.sessionToken); ok {
		t.Error("token pair cached despite failed refresh")
	}
}

func TestGetProviderTokensMissingCredential(t *testing.T) {
	f := newTokensFixture(t)

	_, err := f.handler.Handle(context.Background(), f.query())
	if !errors.Is(err, domainerror.ErrCredentialsNotFound) {
		t.Errorf("err = %v, want ErrCredentialsNotFound", err)
	}
}

func TestGetProviderTokensDecryptionFailure(t *testing.T) {
	f := newTokensFixture(t)
	f.credentialRepo.Seed(model.NewProviderCredential(
		f.userID,
		model.ProviderWakatime,
		"corrupted",
		"corrupted",
		time.Now().Add(time.Hour),
	))

	_, err := f.handler.Handle(context.Background(), f.query())
	if !errors.Is(err, domainerror.ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed", err)
	}
}

func TestGetProviderTokensSessionValidation(t *testing.T) {
	t.Run("rejects garbage token", func(t *testing.T) {
		f := newTokensFixture(t)
		f.seedCredential(t, time.Now().Add(time.Hour))

		_, err := f.handler.Handle(context.Background(), query.GetProviderTokens{SessionToken: "garbage"})
		if !errors.Is(err, domainerror.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("rejects blacklisted token even when identity is cached", func(t *testing.T) {
		f := newTokensFixture(t)
		f.seedCredential(t, time.Now().Add(time.Hour))

		if _, err := f.handler.Handle(context.Background(), f.query()); err != nil {
			t.Fatalf("warm-up Handle: %v", err)
		}

		claims, err := f.tokenService.Validate(f.sessionToken)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if err := f.blacklist.Add(context.Background(), claims.TokenID, time.Hour); err != nil {
			t.Fatalf("blacklist Add: %v", err)
		}

		_, err = f.handler.Handle(context.Background(), f.query())
		if !errors.Is(err, domainerror.ErrTokenRevoked) {
			t.Errorf("err = %v, want ErrTokenRevoked", err)
		}

		// Revocation also evicts the memoized identity.
		if _, ok := f.identityCache.Get(f.sessionToken); ok {
			t.Error("identity still cached after revocation")
		}
	})
}
