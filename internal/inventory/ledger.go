// Package inventory owns product stock movement. Every change to a stock
// level goes through the Ledger, which reads the current quantity and
// version and then issues a write conditioned on that version. A write that
// affects zero rows means another request changed the row in between; the
// caller retries its whole transaction.
package inventory

import (
	"context"
	"log/slog"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/repository"
)

// Ledger reserves and restores product stock.
type Ledger interface {
	// Reserve subtracts quantity from the product's stock. Returns
	// domain.ErrInsufficientStock when the product cannot cover the
	// quantity and domain.ErrVersionConflict when a concurrent update
	// invalidated the read.
	Reserve(ctx context.Context, productID int64, quantity int32) error

	// Restore adds quantity back to the product's stock, used when an
	// order is cancelled. A missing product is not an error: the stock
	// simply has nowhere to return to.
	Restore(ctx context.Context, productID int64, quantity int32) error
}

type ledger struct {
	querier repository.Querier
	logger  *slog.Logger
}

var _ Ledger = (*ledger)(nil)

// NewLedger creates a stock ledger backed by the given querier. Reserve and
// Restore join any transaction carried by ctx.
func NewLedger(querier repository.Querier, logger *slog.Logger) Ledger {
	return &ledger{
		querier: querier,
		logger:  logger,
	}
}

func (l *ledger) Reserve(ctx context.Context, productID int64, quantity int32) error {
	const op = "inventory.reserve"

	if quantity < 1 {
		return domain.Errorf(domain.EINVALID, op, "quantity must be at least 1, got %d", quantity)
	}

	product, err := l.querier.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if product.StockQuantity < quantity {
		return domain.WrapError(domain.ErrInsufficientStock, domain.ECONFLICT, op,
			"Insufficient stock for "+product.Name)
	}

	affected, err := l.querier.UpdateProductStock(ctx, repository.UpdateProductStockParams{
		ID:      productID,
		Stock:   product.StockQuantity - quantity,
		Version: product.Version,
	})
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Failed to update stock")
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrVersionConflict, domain.ECONFLICT, op,
			"Stock changed while reserving "+product.Name)
	}

	return nil
}

func (l *ledger) Restore(ctx context.Context, productID int64, quantity int32) error {
	const op = "inventory.restore"

	if quantity < 1 {
		return domain.Errorf(domain.EINVALID, op, "quantity must be at least 1, got %d", quantity)
	}

	product, err := l.querier.GetProduct(ctx, productID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			l.logger.Warn("skipping stock restore for deleted product",
				slog.Int64("product_id", productID),
				slog.Int("quantity", int(quantity)))
			return nil
		}
		return err
	}

	affected, err := l.querier.UpdateProductStock(ctx, repository.UpdateProductStockParams{
		ID:      productID,
		Stock:   product.StockQuantity + quantity,
		Version: product.Version,
	})
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Failed to restore stock")
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrVersionConflict, domain.ECONFLICT, op,
			"Stock changed while restoring "+product.Name)
	}

	return nil
}
