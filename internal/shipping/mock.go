package shipping

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// MockCalculator is a test implementation of Calculator.
type MockCalculator struct {
	FeeFunc func(ctx context.Context, dest domain.ShippingSnapshot) (int64, error)

	// FlatFee is returned when FeeFunc is nil.
	FlatFee int64
}

var _ Calculator = (*MockCalculator)(nil)

// Fee delegates to FeeFunc when set, otherwise returns FlatFee.
func (m *MockCalculator) Fee(ctx context.Context, dest domain.ShippingSnapshot) (int64, error) {
	if m.FeeFunc != nil {
		return m.FeeFunc(ctx, dest)
	}
	return m.FlatFee, nil
}
