package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/greenfields-vn/chomart/internal/address"
	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/inventory"
	"github.com/greenfields-vn/chomart/internal/notify"
	"github.com/greenfields-vn/chomart/internal/promotion"
	"github.com/greenfields-vn/chomart/internal/repository"
	"github.com/greenfields-vn/chomart/internal/shipping"
	"github.com/greenfields-vn/chomart/internal/telemetry"
)

// CheckoutService turns a buyer's cart into orders.
type CheckoutService interface {
	// Checkout consumes the buyer's whole cart, creating one PENDING
	// order per vendor. All-or-nothing: either every vendor order is
	// created and the cart cleared, or nothing changed. Transient stock
	// contention is retried internally; exhausting the retries returns
	// domain.ErrCheckoutConflict.
	Checkout(ctx context.Context, buyer domain.Actor, params CheckoutParams) ([]domain.Order, error)
}

// CheckoutParams carries the buyer's checkout choices.
type CheckoutParams struct {
	ShippingAddressID int64
	PaymentMethod     domain.PaymentMethod
	Notes             string
}

// CheckoutConfig bounds the conflict-retry loop.
type CheckoutConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// CheckoutServiceParams collects the collaborators of the checkout service.
type CheckoutServiceParams struct {
	Querier    repository.Querier
	Tx         repository.TxManager
	Ledger     inventory.Ledger
	Addresses  address.Provider
	Shipping   shipping.Calculator
	Promotions promotion.Engine
	Notifier   notify.Sender
	Metrics    *telemetry.BusinessMetrics
	Logger     *slog.Logger
	Config     CheckoutConfig
}

type checkoutService struct {
	querier   repository.Querier
	tx        repository.TxManager
	assembler *assembler
	addresses address.Provider
	notifier  notify.Sender
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	cfg       CheckoutConfig
}

var _ CheckoutService = (*checkoutService)(nil)

func NewCheckoutService(params CheckoutServiceParams) CheckoutService {
	return &checkoutService{
		querier: params.Querier,
		tx:      params.Tx,
		assembler: &assembler{
			querier:    params.Querier,
			ledger:     params.Ledger,
			shipping:   params.Shipping,
			promotions: params.Promotions,
		},
		addresses: params.Addresses,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		logger:    params.Logger,
		cfg:       params.Config,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, buyer domain.Actor, params CheckoutParams) ([]domain.Order, error) {
	const op = "checkout"

	if params.PaymentMethod != domain.PaymentMethodCOD && params.PaymentMethod != domain.PaymentMethodGateway {
		s.metrics.CheckoutAttempts.WithLabelValues("invalid").Inc()
		return nil, domain.Errorf(domain.EINVALID, op, "unsupported payment method %q", params.PaymentMethod)
	}

	addr, err := s.addresses.GetAddress(ctx, params.ShippingAddressID, buyer.ID)
	if err != nil {
		s.metrics.CheckoutAttempts.WithLabelValues("invalid").Inc()
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.Invalid(op, "Shipping address does not belong to buyer")
		}
		return nil, err
	}
	dest := addr.Snapshot()

	var orders []domain.Order
	onRetry := func() {
		s.metrics.CheckoutRetries.Inc()
		s.metrics.StockWriteConflicts.Inc()
	}
	err = withRetry(ctx, s.cfg.MaxAttempts, s.cfg.RetryDelay, onRetry, func(ctx context.Context) error {
		orders = orders[:0]
		return s.tx.Do(ctx, func(ctx context.Context) error {
			lines, err := s.querier.GetCartLines(ctx, buyer.ID)
			if err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "Failed to load cart")
			}
			if len(lines) == 0 {
				return domain.WrapError(domain.ErrEmptyCart, domain.EINVALID, op, "Cart is empty")
			}

			// Fresh product reads inside the transaction. Prices and
			// stock shown at cart time are never trusted here.
			resolved := make([]checkoutLine, 0, len(lines))
			for _, line := range lines {
				product, err := s.querier.GetProduct(ctx, line.ProductID)
				if err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						return domain.WrapError(domain.ErrProductUnavailable, domain.EUNPROCESSABLE, op,
							"A product in the cart is no longer available")
					}
					return err
				}
				resolved = append(resolved, checkoutLine{line: line, product: product})
			}

			for _, group := range partitionByVendor(resolved) {
				order, err := s.assembler.assemble(ctx, buyer, group, dest, params.PaymentMethod, params.Notes)
				if err != nil {
					return err
				}
				orders = append(orders, order)
			}

			if err := s.querier.ClearCart(ctx, buyer.ID); err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "Failed to clear cart")
			}
			return nil
		})
	})
	if err != nil {
		s.observeFailure(err)
		return nil, err
	}

	s.metrics.CheckoutAttempts.WithLabelValues("success").Inc()
	s.metrics.CheckoutCompleted.Inc()
	for _, order := range orders {
		s.metrics.OrdersCreated.WithLabelValues(string(order.Category), string(order.PaymentMethod)).Inc()
		s.metrics.OrderValue.Observe(float64(order.Total))
		s.metrics.StockReservations.Add(float64(len(order.Items)))
	}

	// Post-commit, fire-and-forget.
	for _, order := range orders {
		s.send(ctx, notify.NewMessage(notify.EventOrderPlaced, order))
	}

	s.logger.Info("checkout completed",
		slog.Int64("buyer_id", buyer.ID),
		slog.Int("orders", len(orders)))

	return orders, nil
}

func (s *checkoutService) observeFailure(err error) {
	switch {
	case errors.Is(err, domain.ErrCheckoutConflict):
		s.metrics.CheckoutAttempts.WithLabelValues("conflict").Inc()
		s.metrics.CheckoutConflicts.Inc()
	case errors.Is(err, domain.ErrInsufficientStock):
		s.metrics.CheckoutAttempts.WithLabelValues("insufficient_stock").Inc()
		s.metrics.InsufficientStock.Inc()
	case domain.IsCode(err, domain.EINVALID), domain.IsCode(err, domain.EUNPROCESSABLE):
		s.metrics.CheckoutAttempts.WithLabelValues("invalid").Inc()
	default:
		s.metrics.CheckoutAttempts.WithLabelValues("error").Inc()
	}
}

func (s *checkoutService) send(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues(string(msg.Event)).Inc()
		s.logger.Warn("notification failed",
			slog.String("event", string(msg.Event)),
			slog.String("order_code", msg.OrderCode),
			slog.Any("error", err))
		return
	}
	s.metrics.NotificationsSent.WithLabelValues(string(msg.Event)).Inc()
}
