// Package error defines the typed error taxonomy for the credential service.
// Every failure that crosses a component boundary is classified with a Kind
// (how callers should react) and a Code (stable machine-readable identifier).
package error

import "fmt"

// Kind classifies an error by the reaction it demands from the caller.
type Kind string

const (
	// KindUnauthorized means the caller's own credential is bad; they must
	// re-authenticate with the service.
	KindUnauthorized Kind = "unauthorized"

	// KindReauthRequired means the stored provider credential was rejected
	// upstream; the caller must redo the full OAuth login flow.
	KindReauthRequired Kind = "reauth_required"

	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = "not_found"

	// KindIntegrity means persisted state violates an invariant the system
	// guarantees. Surfaced as a server error, never user-correctable.
	KindIntegrity Kind = "integrity"

	// KindUnavailable means a remote dependency failed at the transport or
	// HTTP layer. Transient; safe for the caller to retry.
	KindUnavailable Kind = "unavailable"

	// KindValidation means the request itself is malformed.
	KindValidation Kind = "validation"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeTokenInvalid         Code = "TOKEN_INVALID"
	CodeTokenRevoked         Code = "TOKEN_REVOKED"
	CodeCredentialsNotFound  Code = "CREDENTIALS_NOT_FOUND"
	CodeReauthRequired       Code = "REAUTHENTICATION_REQUIRED"
	CodeDecryptionFailed     Code = "DECRYPTION_FAILED"
	CodeProviderUnavailable  Code = "PROVIDER_UNAVAILABLE"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeAuthorizationMissing Code = "AUTHORIZATION_CODE_MISSING"
	CodeCodeExchangeRejected Code = "CODE_EXCHANGE_REJECTED"
)

// Error is the domain error type. It carries its classification alongside a
// human-readable message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on Code so sentinel comparisons survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error carrying err as its cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, cause: err}
}

// New creates a new domain error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Sentinel errors, one per failure class.
var (
	// ErrInvalidToken covers bad signature, malformed structure, and an
	// unparsable embedded identity.
	ErrInvalidToken = New(KindUnauthorized, CodeTokenInvalid, "session token is invalid")

	// ErrTokenRevoked is returned for tokens invalidated by logout.
	ErrTokenRevoked = New(KindUnauthorized, CodeTokenRevoked, "session token has been revoked")

	// ErrCredentialsNotFound indicates a logged-in user has no credential
	// row. A prior login failed to commit; this is an integrity violation.
	ErrCredentialsNotFound = New(KindIntegrity, CodeCredentialsNotFound, "no provider credentials stored for user")

	// ErrReauthenticationRequired means the provider rejected our refresh
	// token. Stale tokens are never returned in its place.
	ErrReauthenticationRequired = New(KindReauthRequired, CodeReauthRequired, "provider rejected refresh token, full login required")

	// ErrDecryptionFailed means a stored ciphertext failed authentication.
	// Corrupted or misconfigured secret store; operational alert.
	ErrDecryptionFailed = New(KindIntegrity, CodeDecryptionFailed, "stored credential failed decryption")

	ErrProviderUnavailable = New(KindUnavailable, CodeProviderUnavailable, "provider request failed")

	ErrUserNotFound = New(KindNotFound, CodeUserNotFound, "user not found")

	ErrAuthorizationCodeMissing = New(KindValidation, CodeAuthorizationMissing, "authorization code is required")

	// ErrCodeExchangeRejected means the provider refused the authorization
	// code (expired, already used, or forged).
	ErrCodeExchangeRejected = New(KindValidation, CodeCodeExchangeRejected, "provider rejected authorization code")
)
