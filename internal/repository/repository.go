// Package repository provides persistence for the checkout and order
// engine. Querier is the narrow surface services depend on; Postgres is the
// production implementation and Memory backs tests.
package repository

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// UpdateProductStockParams is a conditioned stock write. The update only
// applies while the product row still carries Version; a successful write
// increments the version. Zero rows affected means another request updated
// the row first.
type UpdateProductStockParams struct {
	ID      int64
	Stock   int32
	Version int64
}

// UpsertCartLineParams inserts a cart line or replaces the quantity of the
// existing (buyer, product) line.
type UpsertCartLineParams struct {
	BuyerID   int64
	ProductID int64
	Quantity  int32
}

// UpdateOrderStatusParams moves an order to a new fulfillment and payment
// status in one write.
type UpdateOrderStatusParams struct {
	ID            int64
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
}

// Querier is the persistence surface of the order engine. All methods honor
// a transaction placed in ctx by TxManager.Do.
type Querier interface {
	// Products
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	// UpdateProductStock performs the optimistic conditioned write and
	// returns the number of rows affected (0 on version conflict).
	UpdateProductStock(ctx context.Context, arg UpdateProductStockParams) (int64, error)

	// Cart lines
	GetCartLines(ctx context.Context, buyerID int64) ([]domain.CartLine, error)
	GetCartLine(ctx context.Context, buyerID, productID int64) (domain.CartLine, error)
	UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) (domain.CartLine, error)
	DeleteCartLine(ctx context.Context, buyerID, productID int64) error
	ClearCart(ctx context.Context, buyerID int64) error

	// Orders
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	GetOrderByCode(ctx context.Context, code string) (domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error)
	ListOrdersByVendor(ctx context.Context, vendorID int64) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error
	AppendPayment(ctx context.Context, payment *domain.Payment) error
}

// TxManager runs a function inside one atomic transaction. Queries issued
// through the ctx passed to fn see and join that transaction; any error
// rolls the whole transaction back.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
