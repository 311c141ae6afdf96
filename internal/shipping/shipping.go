// Package shipping computes delivery fees for order destinations.
// Implementations must be deterministic: the same destination always yields
// the same fee, so re-running an aborted checkout reproduces identical
// totals.
package shipping

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// OutOfRegionMode decides what happens for destinations outside every
// configured region.
type OutOfRegionMode string

const (
	// OutOfRegionClamp charges the default fee for unknown regions.
	OutOfRegionClamp OutOfRegionMode = "clamp"
	// OutOfRegionReject refuses checkout to unknown regions.
	OutOfRegionReject OutOfRegionMode = "reject"
)

// Calculator quotes the delivery fee for a shipping destination.
type Calculator interface {
	// Fee returns the delivery fee in whole VND for the destination.
	Fee(ctx context.Context, dest domain.ShippingSnapshot) (int64, error)
}

// ErrOutOfServiceArea is returned in reject mode for destinations outside
// every configured region.
var ErrOutOfServiceArea = &domain.Error{
	Code:    domain.EUNPROCESSABLE,
	Message: "Delivery is not available for this address",
}
