// Package promotion computes order-level discounts at checkout.
package promotion

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// Engine computes the discount for one assembled vendor order.
type Engine interface {
	// ComputeDiscount returns a non-negative discount in whole VND for
	// the given items. The assembler caps the discount at the order
	// subtotal plus shipping so totals never go negative.
	ComputeDiscount(ctx context.Context, buyer domain.Actor, items []domain.OrderItem) (int64, error)
}

// None is the engine used when no promotion campaign is active.
type None struct{}

var _ Engine = None{}

func (None) ComputeDiscount(ctx context.Context, buyer domain.Actor, items []domain.OrderItem) (int64, error) {
	return 0, nil
}

// Mock is a test implementation of Engine.
type Mock struct {
	ComputeDiscountFunc func(ctx context.Context, buyer domain.Actor, items []domain.OrderItem) (int64, error)

	// Discount is returned when ComputeDiscountFunc is nil.
	Discount int64
}

var _ Engine = (*Mock)(nil)

func (m *Mock) ComputeDiscount(ctx context.Context, buyer domain.Actor, items []domain.OrderItem) (int64, error) {
	if m.ComputeDiscountFunc != nil {
		return m.ComputeDiscountFunc(ctx, buyer, items)
	}
	return m.Discount, nil
}
