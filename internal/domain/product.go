package domain

import "time"

// BuyerCategory classifies a purchasing account and drives pricing rules.
type BuyerCategory string

const (
	BuyerCategoryRetail    BuyerCategory = "RETAIL"
	BuyerCategoryWholesale BuyerCategory = "WHOLESALE"
)

// PriceTier is a wholesale bulk-discount rule: orders of at least
// MinQuantity units price at PricePerUnit.
type PriceTier struct {
	MinQuantity  int32
	PricePerUnit int64
}

// Product is the catalog entity referenced by cart lines and order items.
// StockQuantity and Version form the optimistic-concurrency pair: Version
// increases on every successful stock update and conditions every write.
type Product struct {
	ID               int64
	VendorID         int64
	Name             string
	RetailPrice      int64
	RetailUnit       string
	WholesaleEnabled bool
	WholesalePrice   *int64 // optional wholesale base price
	WholesaleUnit    string
	Tiers            []PriceTier
	StockQuantity    int32
	Version          int64
	Published        bool
	UpdatedAt        time.Time
}

var ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
