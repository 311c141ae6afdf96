package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfields-vn/chomart/internal/domain"
)

func TestMapSerializationFailure(t *testing.T) {
	t.Run("serialization failure becomes a version conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
		err := mapSerializationFailure(fmt.Errorf("insert order: %w", pgErr))

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrVersionConflict))
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

		// The original Postgres error stays reachable.
		var got *pgconn.PgError
		require.True(t, errors.As(err, &got))
		assert.Equal(t, "40001", got.Code)
	})

	t.Run("deadlock becomes a version conflict", func(t *testing.T) {
		err := mapSerializationFailure(&pgconn.PgError{Code: "40P01"})
		assert.True(t, errors.Is(err, domain.ErrVersionConflict))
	})

	t.Run("other postgres errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505"}
		err := mapSerializationFailure(pgErr)
		assert.Equal(t, error(pgErr), err)
		assert.False(t, errors.Is(err, domain.ErrVersionConflict))
	})

	t.Run("non-postgres errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, mapSerializationFailure(plain))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, mapSerializationFailure(nil))
	})
}
