package repository

import "context"

// Repos bundles transaction-bound repository instances handed to a
// UnitOfWork callback.
type Repos struct {
	Users       UserRepository
	Credentials CredentialRepository
	Profiles    ProfileRepository
}

// UnitOfWork groups multiple repository writes into one atomic transaction.
// The first login uses it to create the user row and store the initial
// credential as a unit; neither is visible unless both commit.
type UnitOfWork interface {
	// WithinTx runs fn inside a single database transaction. Every statement
	// issued through the repositories passed to fn executes on that
	// transaction. A non-nil error from fn rolls the whole transaction back.
	WithinTx(ctx context.Context, fn func(repos Repos) error) error
}
