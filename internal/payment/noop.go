package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NoopGateway acknowledges every refund without moving money. Used in
// development and for deployments that settle exclusively by COD.
type NoopGateway struct{}

var _ Gateway = NoopGateway{}

func (NoopGateway) Refund(ctx context.Context, params RefundParams) (RefundResult, error) {
	return RefundResult{
		Reference: fmt.Sprintf("noop-%s", uuid.NewString()),
		Message:   "refund acknowledged without gateway",
	}, nil
}
