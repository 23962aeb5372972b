package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codecrunchr/credentials/internal/port/outbound/repository"
)

// DBTX is the subset of pgx execution methods the repositories use. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code runs
// against the pool for single-statement operations and inside a transaction
// when the caller groups writes.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// unitOfWork implements repository.UnitOfWork on a pgx connection pool.
type unitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(pool *pgxpool.Pool) repository.UnitOfWork {
	return &unitOfWork{pool: pool}
}

func (u *unitOfWork) WithinTx(ctx context.Context, fn func(repos repository.Repos) error) error {
	return pgx.BeginFunc(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(repository.Repos{
			Users:       NewUserRepository(tx),
			Credentials: NewCredentialRepository(tx),
			Profiles:    NewProfileRepository(tx),
		})
	})
}
