package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/greenfields-vn/chomart/internal/catalog"
	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/pricing"
	"github.com/greenfields-vn/chomart/internal/repository"
)

// CartService manages a buyer's cart lines.
type CartService interface {
	// AddItem sets the quantity for (buyer, product), creating the line
	// if absent. Quantity must be at least 1; the product must exist and
	// be published.
	AddItem(ctx context.Context, buyer domain.Actor, productID int64, quantity int32) (domain.CartLine, error)

	// RemoveItem deletes one cart line.
	RemoveItem(ctx context.Context, buyer domain.Actor, productID int64) error

	// Clear deletes every line in the buyer's cart.
	Clear(ctx context.Context, buyer domain.Actor) error

	// View returns the cart joined with current catalog data. Prices in
	// the view are advisory; checkout re-resolves them inside its
	// transaction.
	View(ctx context.Context, buyer domain.Actor) ([]domain.CartView, error)
}

type cartService struct {
	querier repository.Querier
	catalog catalog.Catalog
	logger  *slog.Logger
}

var _ CartService = (*cartService)(nil)

// NewCartService creates a cart service. The catalog may be the cached
// variant: cart display tolerates slightly stale product data.
func NewCartService(querier repository.Querier, cat catalog.Catalog, logger *slog.Logger) CartService {
	return &cartService{
		querier: querier,
		catalog: cat,
		logger:  logger,
	}
}

func (s *cartService) AddItem(ctx context.Context, buyer domain.Actor, productID int64, quantity int32) (domain.CartLine, error) {
	const op = "cart.add"

	if quantity < 1 {
		return domain.CartLine{}, domain.WrapError(domain.ErrInvalidQuantity, domain.EINVALID, op,
			"Quantity must be at least 1")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if !product.Published {
		return domain.CartLine{}, domain.WrapError(domain.ErrProductUnavailable, domain.EUNPROCESSABLE, op,
			product.Name+" is no longer available")
	}

	line, err := s.querier.UpsertCartLine(ctx, repository.UpsertCartLineParams{
		BuyerID:   buyer.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return domain.CartLine{}, domain.WrapError(err, domain.EINTERNAL, op, "Failed to save cart line")
	}

	s.logger.Debug("cart line saved",
		slog.Int64("buyer_id", buyer.ID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", int(quantity)))

	return line, nil
}

func (s *cartService) RemoveItem(ctx context.Context, buyer domain.Actor, productID int64) error {
	return s.querier.DeleteCartLine(ctx, buyer.ID, productID)
}

func (s *cartService) Clear(ctx context.Context, buyer domain.Actor) error {
	return s.querier.ClearCart(ctx, buyer.ID)
}

func (s *cartService) View(ctx context.Context, buyer domain.Actor) ([]domain.CartView, error) {
	lines, err := s.querier.GetCartLines(ctx, buyer.ID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.view", "Failed to load cart")
	}

	views := make([]domain.CartView, 0, len(lines))
	for _, line := range lines {
		view := domain.CartView{Line: line}

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			// Keep the line visible so the buyer can remove it.
			view.ProductName = "(đã gỡ)"
		case err != nil:
			return nil, err
		default:
			quote := pricing.Resolve(product, line.Quantity, buyer.Category)
			view.ProductName = product.Name
			view.VendorID = product.VendorID
			view.Unit = quote.Unit
			view.PricePerUnit = quote.PricePerUnit
			view.LineTotal = quote.PricePerUnit * int64(line.Quantity)
			view.Available = product.Published && product.StockQuantity >= line.Quantity
		}

		views = append(views, view)
	}

	return views, nil
}
