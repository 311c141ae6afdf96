package shipping

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// FlatRateCalculator charges a fixed fee per destination province.
type FlatRateCalculator struct {
	regionFees map[string]int64
	defaultFee int64
	mode       OutOfRegionMode
}

var _ Calculator = (*FlatRateCalculator)(nil)

// NewFlatRateCalculator creates a calculator charging regionFees by
// province code. Destinations outside the table get defaultFee in clamp
// mode and ErrOutOfServiceArea in reject mode.
func NewFlatRateCalculator(regionFees map[string]int64, defaultFee int64, mode OutOfRegionMode) *FlatRateCalculator {
	fees := make(map[string]int64, len(regionFees))
	for code, fee := range regionFees {
		fees[code] = fee
	}
	return &FlatRateCalculator{
		regionFees: fees,
		defaultFee: defaultFee,
		mode:       mode,
	}
}

// Fee resolves the flat rate for the destination province.
func (c *FlatRateCalculator) Fee(ctx context.Context, dest domain.ShippingSnapshot) (int64, error) {
	if dest.ProvinceCode == "" {
		return 0, domain.Invalid("shipping.fee", "Destination is missing a province code")
	}

	if fee, ok := c.regionFees[dest.ProvinceCode]; ok {
		return fee, nil
	}

	if c.mode == OutOfRegionReject {
		return 0, ErrOutOfServiceArea
	}
	return c.defaultFee, nil
}
