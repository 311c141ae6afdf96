package payment

import "context"

// MockGateway is a test implementation of Gateway.
type MockGateway struct {
	RefundFunc func(ctx context.Context, params RefundParams) (RefundResult, error)

	// Refunds records every request passed to Refund.
	Refunds []RefundParams
}

var _ Gateway = (*MockGateway)(nil)

func (m *MockGateway) Refund(ctx context.Context, params RefundParams) (RefundResult, error) {
	m.Refunds = append(m.Refunds, params)
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, params)
	}
	return RefundResult{Reference: "mock-refund", Message: "ok"}, nil
}
