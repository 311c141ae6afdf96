package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/inventory"
	"github.com/greenfields-vn/chomart/internal/notify"
	"github.com/greenfields-vn/chomart/internal/payment"
	"github.com/greenfields-vn/chomart/internal/repository"
	"github.com/greenfields-vn/chomart/internal/telemetry"
)

// OrderService reads orders and drives their status lifecycle.
type OrderService interface {
	// Get returns one order. Buyers see their own orders, vendors their
	// own sales, admins everything.
	Get(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error)

	// GetByCode is Get keyed by the buyer-facing order code.
	GetByCode(ctx context.Context, actor domain.Actor, code string) (domain.Order, error)

	// List returns the actor's orders: purchases for buyers, sales for
	// vendors.
	List(ctx context.Context, actor domain.Actor) ([]domain.Order, error)

	// Transition moves an order along the fulfillment path
	// PENDING -> CONFIRMED -> PROCESSING -> SHIPPING -> DELIVERED.
	// Vendors may only move their own orders. Cancellation and returns
	// are separate operations, not transitions.
	Transition(ctx context.Context, actor domain.Actor, orderID int64, newStatus domain.OrderStatus) (domain.Order, error)

	// Cancel cancels a PENDING or CONFIRMED order, restoring reserved
	// stock and recording the refund state. Allowed for the ordering
	// buyer and admins.
	Cancel(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error)

	// Return marks a SHIPPING or DELIVERED order as RETURNED. Admin
	// only; the exceptional flow for lost or refused deliveries.
	Return(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error)
}

// transitionRoles is the full fulfillment edge table: for each current
// status, the statuses reachable through Transition and the roles allowed
// to take the edge. Edges absent here are invalid transitions.
var transitionRoles = map[domain.OrderStatus]map[domain.OrderStatus][]domain.Role{
	domain.OrderStatusPending: {
		domain.OrderStatusConfirmed: {domain.RoleVendor, domain.RoleAdmin},
	},
	domain.OrderStatusConfirmed: {
		domain.OrderStatusProcessing: {domain.RoleVendor, domain.RoleAdmin},
	},
	domain.OrderStatusProcessing: {
		domain.OrderStatusShipping: {domain.RoleVendor, domain.RoleAdmin},
	},
	domain.OrderStatusShipping: {
		domain.OrderStatusDelivered: {domain.RoleVendor, domain.RoleAdmin},
	},
}

// allowedRoles is the single gatekeeper over transitionRoles.
func allowedRoles(from, to domain.OrderStatus) ([]domain.Role, bool) {
	roles, ok := transitionRoles[from][to]
	return roles, ok
}

// OrderServiceParams collects the collaborators of the order service.
type OrderServiceParams struct {
	Querier  repository.Querier
	Tx       repository.TxManager
	Ledger   inventory.Ledger
	Gateway  payment.Gateway
	Notifier notify.Sender
	Metrics  *telemetry.BusinessMetrics
	Logger   *slog.Logger
	Retry    CheckoutConfig
}

type orderService struct {
	querier  repository.Querier
	tx       repository.TxManager
	ledger   inventory.Ledger
	gateway  payment.Gateway
	notifier notify.Sender
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
	retry    CheckoutConfig
}

var _ OrderService = (*orderService)(nil)

func NewOrderService(params OrderServiceParams) OrderService {
	return &orderService{
		querier:  params.Querier,
		tx:       params.Tx,
		ledger:   params.Ledger,
		gateway:  params.Gateway,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logger:   params.Logger,
		retry:    params.Retry,
	}
}

// =============================================================================
// Queries
// =============================================================================

func (s *orderService) Get(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error) {
	order, err := s.querier.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *orderService) GetByCode(ctx context.Context, actor domain.Actor, code string) (domain.Order, error) {
	order, err := s.querier.GetOrderByCode(ctx, code)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.authorizeRead(actor, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	switch actor.Role {
	case domain.RoleBuyer:
		return s.querier.ListOrdersByBuyer(ctx, actor.ID)
	case domain.RoleVendor:
		return s.querier.ListOrdersByVendor(ctx, actor.ID)
	}
	return nil, domain.Invalid("order.list", "Listing requires a buyer or vendor account")
}

// authorizeRead hides orders from everyone but their buyer, their vendor
// and admins. Outsiders get not-found rather than forbidden so order ids
// leak nothing.
func (s *orderService) authorizeRead(actor domain.Actor, order domain.Order) error {
	if actor.IsAdmin() || order.BuyerID == actor.ID && actor.Role == domain.RoleBuyer ||
		order.VendorID == actor.ID && actor.Role == domain.RoleVendor {
		return nil
	}
	return domain.ErrOrderNotFound
}

// =============================================================================
// State machine
// =============================================================================

func (s *orderService) Transition(ctx context.Context, actor domain.Actor, orderID int64, newStatus domain.OrderStatus) (domain.Order, error) {
	const op = "order.transition"

	var updated domain.Order
	var previous domain.OrderStatus

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		// Re-read inside the transaction: the gate applies to the
		// current status, not whatever the caller last saw.
		order, err := s.querier.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		previous = order.Status

		roles, valid := allowedRoles(order.Status, newStatus)
		if !valid {
			return domain.WrapError(domain.ErrInvalidTransition, domain.EINVALID, op,
				"Cannot move order from "+string(order.Status)+" to "+string(newStatus))
		}
		if !slices.Contains(roles, actor.Role) {
			return domain.Forbidden(op, "Role may not perform this transition")
		}
		if actor.Role == domain.RoleVendor && order.VendorID != actor.ID {
			return domain.Forbidden(op, "Order belongs to another vendor")
		}

		order.Status = newStatus

		// COD orders settle on delivery.
		if newStatus == domain.OrderStatusDelivered &&
			order.PaymentMethod == domain.PaymentMethodCOD &&
			order.PaymentStatus == domain.PaymentStatusPending {
			order.PaymentStatus = domain.PaymentStatusPaid
			settlement := domain.Payment{
				OrderID: order.ID,
				Method:  domain.PaymentMethodCOD,
				Amount:  order.Total,
				Status:  domain.TxnStatusSuccess,
				Message: "settled on delivery",
			}
			if err := s.querier.AppendPayment(ctx, &settlement); err != nil {
				return domain.WrapError(err, domain.EINTERNAL, op, "Failed to record settlement")
			}
			order.Payments = append(order.Payments, settlement)
		}

		if err := s.querier.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
			ID:            order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.OrderTransitions.WithLabelValues(string(previous), string(newStatus)).Inc()
	s.notifyStatusChange(ctx, updated, previous, notify.EventStatusChanged)

	return updated, nil
}

func (s *orderService) Cancel(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error) {
	const op = "order.cancel"

	var updated domain.Order
	var previous domain.OrderStatus
	var refund *payment.RefundParams

	// Stock restoration uses the same conditioned writes as checkout, so
	// a concurrent checkout can invalidate a read here. Retry the whole
	// cancellation transaction on version conflicts.
	err := withRetry(ctx, s.retry.MaxAttempts, s.retry.RetryDelay, nil, func(ctx context.Context) error {
		refund = nil
		return s.tx.Do(ctx, func(ctx context.Context) error {
			order, err := s.querier.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}
			previous = order.Status

			if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
				return domain.WrapError(domain.ErrInvalidTransition, domain.EINVALID, op,
					"Cannot cancel an order in status "+string(order.Status))
			}
			if !actor.IsAdmin() && !(actor.Role == domain.RoleBuyer && order.BuyerID == actor.ID) {
				return domain.Forbidden(op, "Only the ordering buyer or an admin can cancel")
			}

			if err := s.restoreItems(ctx, order); err != nil {
				return err
			}

			order.Status = domain.OrderStatusCancelled
			switch order.PaymentStatus {
			case domain.PaymentStatusPaid:
				order.PaymentStatus = domain.PaymentStatusRefundPending
				refund = &payment.RefundParams{
					OrderCode:      order.Code,
					Amount:         order.Total,
					TransactionRef: lastSuccessRef(order.Payments),
				}
			case domain.PaymentStatusPending:
				order.PaymentStatus = domain.PaymentStatusFailed
			}

			if err := s.querier.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
				ID:            order.ID,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
			}); err != nil {
				return err
			}

			updated = order
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.OrdersCancelled.Inc()
	s.metrics.OrderTransitions.WithLabelValues(string(previous), string(domain.OrderStatusCancelled)).Inc()

	if refund != nil {
		updated = s.settleRefund(ctx, updated, *refund)
	}

	s.notifyStatusChange(ctx, updated, previous, notify.EventOrderCancelled)
	return updated, nil
}

func (s *orderService) Return(ctx context.Context, actor domain.Actor, orderID int64) (domain.Order, error) {
	const op = "order.return"

	if !actor.IsAdmin() {
		return domain.Order{}, domain.Forbidden(op, "Only admins can mark orders returned")
	}

	var updated domain.Order
	var previous domain.OrderStatus
	var refund *payment.RefundParams

	err := withRetry(ctx, s.retry.MaxAttempts, s.retry.RetryDelay, nil, func(ctx context.Context) error {
		refund = nil
		return s.tx.Do(ctx, func(ctx context.Context) error {
			order, err := s.querier.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}
			previous = order.Status

			if order.Status != domain.OrderStatusShipping && order.Status != domain.OrderStatusDelivered {
				return domain.WrapError(domain.ErrInvalidTransition, domain.EINVALID, op,
					"Cannot return an order in status "+string(order.Status))
			}

			if err := s.restoreItems(ctx, order); err != nil {
				return err
			}

			order.Status = domain.OrderStatusReturned
			if order.PaymentStatus == domain.PaymentStatusPaid {
				order.PaymentStatus = domain.PaymentStatusRefundPending
				refund = &payment.RefundParams{
					OrderCode:      order.Code,
					Amount:         order.Total,
					TransactionRef: lastSuccessRef(order.Payments),
				}
			}

			if err := s.querier.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
				ID:            order.ID,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
			}); err != nil {
				return err
			}

			updated = order
			return nil
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.OrderTransitions.WithLabelValues(string(previous), string(domain.OrderStatusReturned)).Inc()

	if refund != nil {
		updated = s.settleRefund(ctx, updated, *refund)
	}

	s.notifyStatusChange(ctx, updated, previous, notify.EventStatusChanged)
	return updated, nil
}

// restoreItems puts every item's stock back. Best effort per line: a line
// whose product vanished is logged and skipped inside the ledger, but a
// version conflict aborts the transaction so the caller's retry re-runs the
// whole restoration.
func (s *orderService) restoreItems(ctx context.Context, order domain.Order) error {
	for _, item := range order.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
		s.metrics.StockRestores.Inc()
	}
	return nil
}

// lastSuccessRef finds the transaction reference of the most recent
// successful settlement, for the gateway refund call.
func lastSuccessRef(payments []domain.Payment) string {
	for i := len(payments) - 1; i >= 0; i-- {
		if payments[i].Status == domain.TxnStatusSuccess {
			return payments[i].TransactionRef
		}
	}
	return ""
}

// settleRefund runs the post-commit gateway refund and records the
// outcome. Gateway failure downgrades to manual follow-up; the
// cancellation itself already committed.
func (s *orderService) settleRefund(ctx context.Context, order domain.Order, params payment.RefundParams) domain.Order {
	result, err := s.gateway.Refund(ctx, params)

	record := domain.Payment{
		OrderID: order.ID,
		Method:  order.PaymentMethod,
		Amount:  -order.Total,
		Status:  domain.TxnStatusRefund,
	}
	if err != nil {
		order.PaymentStatus = domain.PaymentStatusRefundManualRequired
		record.Message = err.Error()
		s.logger.Error("gateway refund failed, manual follow-up required",
			slog.String("order_code", order.Code),
			slog.Any("error", err))
	} else {
		order.PaymentStatus = domain.PaymentStatusRefunded
		record.TransactionRef = result.Reference
		record.Message = result.Message
	}

	if err := s.querier.AppendPayment(ctx, &record); err != nil {
		s.logger.Error("failed to record refund payment",
			slog.String("order_code", order.Code),
			slog.Any("error", err))
	}
	if err := s.querier.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		ID:            order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}); err != nil {
		s.logger.Error("failed to record refund status",
			slog.String("order_code", order.Code),
			slog.Any("error", err))
	}

	order.Payments = append(order.Payments, record)
	return order
}

func (s *orderService) notifyStatusChange(ctx context.Context, order domain.Order, previous domain.OrderStatus, event notify.Event) {
	msg := notify.NewMessage(event, order)
	msg.PreviousStatus = previous
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues(string(msg.Event)).Inc()
		s.logger.Warn("notification failed",
			slog.String("event", string(msg.Event)),
			slog.String("order_code", order.Code),
			slog.Any("error", err))
		return
	}
	s.metrics.NotificationsSent.WithLabelValues(string(msg.Event)).Inc()
}
