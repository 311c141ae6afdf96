package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenfields-vn/chomart/internal/domain"
)

type txKey struct{}

// PgxTxManager implements TxManager on a pgx connection pool. The open
// transaction travels in the context so that Postgres queries issued inside
// fn join it transparently.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

func NewPgxTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

func (tm *PgxTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return mapSerializationFailure(err)
	}

	return mapSerializationFailure(tx.Commit(ctx))
}

// mapSerializationFailure rewrites Postgres serialization and deadlock
// aborts into the retryable version-conflict sentinel. At the serializable
// isolation level a competing write surfaces as SQLSTATE 40001 or 40P01
// instead of a zero-rows conditioned update, and callers must retry both
// the same way.
func mapSerializationFailure(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return &domain.Error{
			Code:    domain.ECONFLICT,
			Op:      "repository.tx",
			Message: domain.ErrVersionConflict.Message,
			Err:     errors.Join(domain.ErrVersionConflict, err),
		}
	}
	return err
}

// txFromContext returns the transaction placed in ctx by Do, if any.
func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
