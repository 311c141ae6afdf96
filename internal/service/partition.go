package service

import "github.com/greenfields-vn/chomart/internal/domain"

// checkoutLine pairs a cart line with the freshly-read product it
// references.
type checkoutLine struct {
	line    domain.CartLine
	product domain.Product
}

// vendorGroup is one vendor's share of a checkout, destined to become one
// order.
type vendorGroup struct {
	vendorID int64
	lines    []checkoutLine
}

// partitionByVendor groups checkout lines by product vendor. Pure grouping,
// no stock or price checks. Groups keep the order vendors first appear in
// the cart so retried checkouts assemble orders in a stable order.
func partitionByVendor(lines []checkoutLine) []vendorGroup {
	var groups []vendorGroup
	index := make(map[int64]int)

	for _, line := range lines {
		vendorID := line.product.VendorID
		i, ok := index[vendorID]
		if !ok {
			i = len(groups)
			index[vendorID] = i
			groups = append(groups, vendorGroup{vendorID: vendorID})
		}
		groups[i].lines = append(groups[i].lines, line)
	}

	return groups
}
