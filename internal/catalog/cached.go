package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// CachedCatalog wraps a Catalog with a short-lived in-process cache. Safe
// for cart display only: cached stock, price and version may be stale, so
// anything that reserves stock or charges money reads through the uncached
// catalog instead.
type CachedCatalog struct {
	inner Catalog
	cache *cache.Cache
}

var _ Catalog = (*CachedCatalog)(nil)

// NewCached wraps inner with a cache whose entries expire after ttl.
func NewCached(inner Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	key := fmt.Sprintf("product:%d", id)
	if hit, ok := c.cache.Get(key); ok {
		return hit.(domain.Product), nil
	}

	product, err := c.inner.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	c.cache.SetDefault(key, product)
	return product, nil
}

// Invalidate drops a product from the cache, used after vendor catalog
// edits served by the same process.
func (c *CachedCatalog) Invalidate(id int64) {
	c.cache.Delete(fmt.Sprintf("product:%d", id))
}
