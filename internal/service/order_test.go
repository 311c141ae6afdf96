package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/notify"
	"github.com/greenfields-vn/chomart/internal/payment"
	"github.com/greenfields-vn/chomart/internal/repository"
)

// placePendingOrder seeds a product, checks it out COD and returns the
// created PENDING order.
func placePendingOrder(t *testing.T, f *fixture) domain.Order {
	t.Helper()
	f.seedProduct(domain.Product{
		ID: 1, VendorID: vendorOne.ID, Name: "Dưa hấu", RetailPrice: 20000, RetailUnit: "kg",
		StockQuantity: 10, Published: true,
	})
	f.addToCart(t, buyerRetail, 1, 4)
	orders := f.placeOrder(t, buyerRetail)
	require.Len(t, orders, 1)
	return orders[0]
}

// markPaid flips an order to PAID with a successful gateway settlement on
// record, mimicking a completed gateway payment.
func markPaid(t *testing.T, f *fixture, order domain.Order) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		ID:            order.ID,
		Status:        order.Status,
		PaymentStatus: domain.PaymentStatusPaid,
	}))
	require.NoError(t, f.store.AppendPayment(ctx, &domain.Payment{
		OrderID:        order.ID,
		Method:         domain.PaymentMethodGateway,
		Amount:         order.Total,
		Status:         domain.TxnStatusSuccess,
		TransactionRef: "txn-abc123",
	}))
}

func TestTransition_FulfillmentPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	order := placePendingOrder(t, f)

	path := []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusProcessing,
		domain.OrderStatusShipping,
		domain.OrderStatusDelivered,
	}
	for _, next := range path {
		updated, err := f.orders.Transition(ctx, vendorOne, order.ID, next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, updated.Status)
	}

	// One status-change notification per edge, each carrying both ends.
	changes := f.sender.SentWith(notify.EventStatusChanged)
	require.Len(t, changes, len(path))
	assert.Equal(t, domain.OrderStatusPending, changes[0].PreviousStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, changes[0].NewStatus)
	assert.Equal(t, domain.OrderStatusShipping, changes[3].PreviousStatus)
	assert.Equal(t, domain.OrderStatusDelivered, changes[3].NewStatus)
}

func TestTransition_CODSettlesOnDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{})
	order := placePendingOrder(t, f)

	for _, next := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusShipping} {
		_, err := f.orders.Transition(ctx, vendorOne, order.ID, next)
		require.NoError(t, err)
	}

	delivered, err := f.orders.Transition(ctx, vendorOne, order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, delivered.PaymentStatus)

	stored, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	require.Len(t, stored.Payments, 2)
	settlement := stored.Payments[1]
	assert.Equal(t, domain.TxnStatusSuccess, settlement.Status)
	assert.Equal(t, domain.PaymentMethodCOD, settlement.Method)
	assert.Equal(t, stored.Total, settlement.Amount)
}

func TestTransition_InvalidEdges(t *testing.T) {
	ctx := context.Background()

	t.Run("skipping an edge", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Transition(ctx, vendorOne, order.ID, domain.OrderStatusShipping)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("terminal states have no exits", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		for _, next := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusShipping, domain.OrderStatusDelivered} {
			_, err := f.orders.Transition(ctx, vendorOne, order.ID, next)
			require.NoError(t, err)
		}

		for _, next := range []domain.OrderStatus{
			domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.OrderStatusProcessing,
			domain.OrderStatusShipping, domain.OrderStatusDelivered, domain.OrderStatusCancelled,
			domain.OrderStatusReturned,
		} {
			_, err := f.orders.Transition(ctx, admin, order.ID, next)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "DELIVERED -> %s", next)
		}
	})

	t.Run("cancelled orders stay cancelled", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		_, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)

		_, err = f.orders.Transition(ctx, admin, order.ID, domain.OrderStatusConfirmed)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("cancellation is not a transition", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Transition(ctx, buyerRetail, order.ID, domain.OrderStatusCancelled)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("re-applying the current status", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Transition(ctx, vendorOne, order.ID, domain.OrderStatusPending)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})
}

func TestTransition_RoleGating(t *testing.T) {
	ctx := context.Background()

	t.Run("buyers cannot confirm", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Transition(ctx, buyerRetail, order.ID, domain.OrderStatusConfirmed)
		require.Error(t, err)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("vendors cannot touch other vendors' orders", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Transition(ctx, vendorTwo, order.ID, domain.OrderStatusConfirmed)
		require.Error(t, err)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("admins can run the fulfillment path", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		updated, err := f.orders.Transition(ctx, admin, order.ID, domain.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("buyer cancels pending order and stock returns", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		require.Equal(t, int32(6), f.stock(t, 1))

		updated, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
		assert.Equal(t, domain.PaymentStatusFailed, updated.PaymentStatus)

		// Restore is the exact inverse of the reservation.
		assert.Equal(t, int32(10), f.stock(t, 1))
		assert.Len(t, f.sender.SentWith(notify.EventOrderCancelled), 1)
	})

	t.Run("cancel from confirmed is allowed", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		_, err := f.orders.Transition(ctx, vendorOne, order.ID, domain.OrderStatusConfirmed)
		require.NoError(t, err)

		updated, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	})

	t.Run("cancel past confirmation is invalid", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		for _, next := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusProcessing} {
			_, err := f.orders.Transition(ctx, vendorOne, order.ID, next)
			require.NoError(t, err)
		}

		_, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("cancelling twice applies compensation once", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		_, err = f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

		assert.Equal(t, int32(10), f.stock(t, 1))
	})

	t.Run("only the ordering buyer or an admin", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		otherBuyer := domain.Actor{ID: 999, Role: domain.RoleBuyer, Category: domain.BuyerCategoryRetail}
		_, err := f.orders.Cancel(ctx, otherBuyer, order.ID)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

		_, err = f.orders.Cancel(ctx, vendorOne, order.ID)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

		_, err = f.orders.Cancel(ctx, admin, order.ID)
		require.NoError(t, err)
	})

	t.Run("deleted product does not block cancellation", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		f.store.DeleteProduct(1)

		updated, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	})
}

func TestCancel_PaidOrderRefunds(t *testing.T) {
	ctx := context.Background()

	t.Run("gateway refund succeeds", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		markPaid(t, f, order)

		updated, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
		assert.Equal(t, domain.PaymentStatusRefunded, updated.PaymentStatus)

		require.Len(t, f.gateway.Refunds, 1)
		assert.Equal(t, order.Code, f.gateway.Refunds[0].OrderCode)
		assert.Equal(t, order.Total, f.gateway.Refunds[0].Amount)
		assert.Equal(t, "txn-abc123", f.gateway.Refunds[0].TransactionRef)

		stored, err := f.store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, stored.PaymentStatus)
		last := stored.Payments[len(stored.Payments)-1]
		assert.Equal(t, domain.TxnStatusRefund, last.Status)
		assert.Equal(t, -order.Total, last.Amount)
	})

	t.Run("gateway failure flags manual follow-up", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		f.gateway.RefundFunc = func(ctx context.Context, params payment.RefundParams) (payment.RefundResult, error) {
			return payment.RefundResult{}, errors.New("gateway timeout")
		}
		order := placePendingOrder(t, f)
		markPaid(t, f, order)

		updated, err := f.orders.Cancel(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
		assert.Equal(t, domain.PaymentStatusRefundManualRequired, updated.PaymentStatus)

		stored, err := f.store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefundManualRequired, stored.PaymentStatus)
	})
}

func TestReturn(t *testing.T) {
	ctx := context.Background()

	deliver := func(t *testing.T, f *fixture, orderID int64) {
		t.Helper()
		for _, next := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusProcessing, domain.OrderStatusShipping, domain.OrderStatusDelivered} {
			_, err := f.orders.Transition(ctx, vendorOne, orderID, next)
			require.NoError(t, err)
		}
	}

	t.Run("admin returns a delivered order", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		deliver(t, f, order.ID)

		updated, err := f.orders.Return(ctx, admin, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusReturned, updated.Status)
		// COD settled on delivery, so money must flow back.
		assert.Equal(t, domain.PaymentStatusRefunded, updated.PaymentStatus)
		assert.Equal(t, int32(10), f.stock(t, 1))
	})

	t.Run("non-admins cannot return", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)
		deliver(t, f, order.ID)

		_, err := f.orders.Return(ctx, vendorOne, order.ID)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
		_, err = f.orders.Return(ctx, buyerRetail, order.ID)
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})

	t.Run("only shipping or delivered orders", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Return(ctx, admin, order.ID)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})
}

func TestOrderQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("buyer and vendor see the order, outsiders see nothing", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		_, err := f.orders.Get(ctx, buyerRetail, order.ID)
		require.NoError(t, err)
		_, err = f.orders.Get(ctx, vendorOne, order.ID)
		require.NoError(t, err)
		_, err = f.orders.Get(ctx, admin, order.ID)
		require.NoError(t, err)

		outsider := domain.Actor{ID: 777, Role: domain.RoleBuyer}
		_, err = f.orders.Get(ctx, outsider, order.ID)
		assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
		_, err = f.orders.Get(ctx, vendorTwo, order.ID)
		assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
	})

	t.Run("lookup by code", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		order := placePendingOrder(t, f)

		found, err := f.orders.GetByCode(ctx, buyerRetail, order.Code)
		require.NoError(t, err)
		assert.Equal(t, order.ID, found.ID)

		_, err = f.orders.GetByCode(ctx, buyerRetail, "ORD-20200101-XXXXXX")
		assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
	})

	t.Run("list by role", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		placePendingOrder(t, f)

		mine, err := f.orders.List(ctx, buyerRetail)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		sales, err := f.orders.List(ctx, vendorOne)
		require.NoError(t, err)
		assert.Len(t, sales, 1)

		none, err := f.orders.List(ctx, vendorTwo)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("list returns orders oldest first", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{})
		first := placePendingOrder(t, f)

		f.addToCart(t, buyerRetail, 1, 2)
		more := f.placeOrder(t, buyerRetail)
		require.Len(t, more, 1)

		mine, err := f.orders.List(ctx, buyerRetail)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, first.ID, mine[0].ID)
		assert.Equal(t, more[0].ID, mine[1].ID)
		assert.Less(t, mine[0].ID, mine[1].ID)
	})
}
