// Package pricing resolves the unit price and unit label for a cart line.
// Resolution is pure and must run on freshly-read product data: checkout
// resolves prices again inside its transaction and never trusts amounts
// shown during cart display.
package pricing

import "github.com/greenfields-vn/chomart/internal/domain"

// Quote is the resolved price for one cart line.
type Quote struct {
	PricePerUnit int64
	Unit         string
}

// Resolve picks the unit price and unit label for quantity units of product
// bought by a buyer of the given category.
//
// Wholesale buyers on wholesale-enabled products get the best qualifying
// bulk tier, falling back to the wholesale base price, then the retail
// price. Retail buyers always pay retail regardless of tiers.
func Resolve(product domain.Product, quantity int32, category domain.BuyerCategory) Quote {
	if category != domain.BuyerCategoryWholesale || !product.WholesaleEnabled {
		return Quote{PricePerUnit: product.RetailPrice, Unit: product.RetailUnit}
	}

	if tier, ok := bestTier(product.Tiers, quantity); ok {
		return Quote{PricePerUnit: tier.PricePerUnit, Unit: wholesaleUnit(product)}
	}

	if product.WholesalePrice != nil {
		return Quote{PricePerUnit: *product.WholesalePrice, Unit: wholesaleUnit(product)}
	}

	return Quote{PricePerUnit: product.RetailPrice, Unit: product.RetailUnit}
}

// bestTier returns the qualifying tier with the largest MinQuantity.
func bestTier(tiers []domain.PriceTier, quantity int32) (domain.PriceTier, bool) {
	var best domain.PriceTier
	found := false
	for _, tier := range tiers {
		if tier.MinQuantity > quantity {
			continue
		}
		if !found || tier.MinQuantity > best.MinQuantity {
			best = tier
			found = true
		}
	}
	return best, found
}

func wholesaleUnit(product domain.Product) string {
	if product.WholesaleUnit != "" {
		return product.WholesaleUnit
	}
	return product.RetailUnit
}
