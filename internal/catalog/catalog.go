// Package catalog exposes product lookups to the cart and checkout layers.
package catalog

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/repository"
)

// Catalog looks up products by id.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

type querierCatalog struct {
	querier repository.Querier
}

var _ Catalog = (*querierCatalog)(nil)

// New creates a catalog reading straight from the repository. Checkout must
// use this uncached form: prices and stock must come from fresh reads
// inside the checkout transaction.
func New(querier repository.Querier) Catalog {
	return &querierCatalog{querier: querier}
}

func (c *querierCatalog) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return c.querier.GetProduct(ctx, id)
}
