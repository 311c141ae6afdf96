package inventory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedProduct(store *repository.Memory, id int64, stock int32) {
	store.PutProduct(domain.Product{
		ID:            id,
		VendorID:      10,
		Name:          "Rau muong",
		RetailPrice:   12000,
		RetailUnit:    "bó",
		StockQuantity: stock,
		Version:       1,
		Published:     true,
	})
}

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements stock and bumps version", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 10)
		ledger := NewLedger(store, testLogger())

		err := ledger.Reserve(ctx, 1, 4)
		require.NoError(t, err)

		product, err := store.GetProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(6), product.StockQuantity)
		assert.Equal(t, int64(2), product.Version)
	})

	t.Run("rejects quantity exceeding stock", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 3)
		ledger := NewLedger(store, testLogger())

		err := ledger.Reserve(ctx, 1, 4)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

		// Stock untouched on failure.
		product, err := store.GetProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(3), product.StockQuantity)
		assert.Equal(t, int64(1), product.Version)
	})

	t.Run("allows reserving the exact remaining stock", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 5)
		ledger := NewLedger(store, testLogger())

		require.NoError(t, ledger.Reserve(ctx, 1, 5))

		product, err := store.GetProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(0), product.StockQuantity)

		err = ledger.Reserve(ctx, 1, 1)
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 5)
		ledger := NewLedger(store, testLogger())

		err := ledger.Reserve(ctx, 1, 0)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("unknown product", func(t *testing.T) {
		store := repository.NewMemory()
		ledger := NewLedger(store, testLogger())

		err := ledger.Reserve(ctx, 99, 1)
		assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	})

	t.Run("version conflict when row changes between read and write", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 10)

		// Interleave a competing stock update after the ledger's read.
		interposer := &versionBumper{Querier: store, store: store, productID: 1}
		ledger := NewLedger(interposer, testLogger())

		err := ledger.Reserve(ctx, 1, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrVersionConflict))
	})
}

func TestLedger_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("adds stock back", func(t *testing.T) {
		store := repository.NewMemory()
		seedProduct(store, 1, 2)
		ledger := NewLedger(store, testLogger())

		require.NoError(t, ledger.Restore(ctx, 1, 5))

		product, err := store.GetProduct(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(7), product.StockQuantity)
		assert.Equal(t, int64(2), product.Version)
	})

	t.Run("deleted product is skipped without error", func(t *testing.T) {
		store := repository.NewMemory()
		ledger := NewLedger(store, testLogger())

		assert.NoError(t, ledger.Restore(ctx, 404, 3))
	})
}

// versionBumper lets a competing writer slip in between the ledger's read
// and its conditioned write by bumping the product version after every
// GetProduct.
type versionBumper struct {
	repository.Querier
	store     *repository.Memory
	productID int64
}

func (v *versionBumper) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := v.Querier.GetProduct(ctx, id)
	if err != nil {
		return product, err
	}
	if id == v.productID {
		_, err := v.store.UpdateProductStock(ctx, repository.UpdateProductStockParams{
			ID:      id,
			Stock:   product.StockQuantity,
			Version: product.Version,
		})
		if err != nil {
			return product, err
		}
	}
	return product, nil
}
