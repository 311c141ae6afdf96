package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/greenfields-vn/chomart/internal/address"
	"github.com/greenfields-vn/chomart/internal/catalog"
	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/inventory"
	"github.com/greenfields-vn/chomart/internal/notify"
	"github.com/greenfields-vn/chomart/internal/payment"
	"github.com/greenfields-vn/chomart/internal/promotion"
	"github.com/greenfields-vn/chomart/internal/repository"
	"github.com/greenfields-vn/chomart/internal/shipping"
	"github.com/greenfields-vn/chomart/internal/telemetry"
)

// fixture wires every service against the in-memory store.
type fixture struct {
	store     *repository.Memory
	querier   repository.Querier
	sender    *notify.MockSender
	gateway   *payment.MockGateway
	shipping  *shipping.MockCalculator
	addresses *address.MockProvider
	checkout  CheckoutService
	orders    OrderService
	cart      CartService
}

// fixtureOpts tweaks collaborator behavior per test.
type fixtureOpts struct {
	querier  func(*repository.Memory) repository.Querier
	promos   promotion.Engine
	attempts int
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	store := repository.NewMemory()
	var querier repository.Querier = store
	if opts.querier != nil {
		querier = opts.querier(store)
	}
	var promos promotion.Engine = promotion.None{}
	if opts.promos != nil {
		promos = opts.promos
	}
	attempts := opts.attempts
	if attempts == 0 {
		attempts = 3
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := telemetry.NewBusinessMetrics(prometheus.NewRegistry())
	sender := &notify.MockSender{}
	gateway := &payment.MockGateway{}
	calc := &shipping.MockCalculator{FlatFee: 15000}
	ledger := inventory.NewLedger(querier, logger)
	addresses := &address.MockProvider{Addresses: []address.Address{
		{ID: 1, OwnerID: buyerRetail.ID, FullName: "Nguyễn Văn A", Phone: "0905123456", AddressLine: "12 Trần Phú", ProvinceCode: "48"},
		{ID: 2, OwnerID: buyerWholesale.ID, FullName: "Trần Thị B", Phone: "0912345678", AddressLine: "5 Lê Lợi", ProvinceCode: "48"},
	}}
	cfg := CheckoutConfig{MaxAttempts: attempts, RetryDelay: 0}

	return &fixture{
		store:     store,
		querier:   querier,
		sender:    sender,
		gateway:   gateway,
		shipping:  calc,
		addresses: addresses,
		checkout: NewCheckoutService(CheckoutServiceParams{
			Querier:    querier,
			Tx:         store,
			Ledger:     ledger,
			Addresses:  addresses,
			Shipping:   calc,
			Promotions: promos,
			Notifier:   sender,
			Metrics:    metrics,
			Logger:     logger,
			Config:     cfg,
		}),
		orders: NewOrderService(OrderServiceParams{
			Querier:  querier,
			Tx:       store,
			Ledger:   ledger,
			Gateway:  gateway,
			Notifier: sender,
			Metrics:  metrics,
			Logger:   logger,
			Retry:    cfg,
		}),
		cart: NewCartService(querier, catalog.New(querier), logger),
	}
}

var (
	buyerRetail    = domain.Actor{ID: 100, Role: domain.RoleBuyer, Category: domain.BuyerCategoryRetail}
	buyerWholesale = domain.Actor{ID: 101, Role: domain.RoleBuyer, Category: domain.BuyerCategoryWholesale}
	vendorOne      = domain.Actor{ID: 10, Role: domain.RoleVendor}
	vendorTwo      = domain.Actor{ID: 11, Role: domain.RoleVendor}
	admin          = domain.Actor{ID: 1, Role: domain.RoleAdmin}
)

func intp(v int64) *int64 { return &v }

func (f *fixture) addAddress(addressID, ownerID int64) {
	f.addresses.Addresses = append(f.addresses.Addresses, address.Address{
		ID: addressID, OwnerID: ownerID, FullName: "Người mua", Phone: "0900000000",
		AddressLine: "1 Nguyễn Huệ", ProvinceCode: "48",
	})
}

func (f *fixture) seedProduct(p domain.Product) {
	if p.Version == 0 {
		p.Version = 1
	}
	f.store.PutProduct(p)
}

func (f *fixture) addToCart(t *testing.T, buyer domain.Actor, productID int64, qty int32) {
	t.Helper()
	_, err := f.store.UpsertCartLine(context.Background(), repository.UpsertCartLineParams{
		BuyerID:   buyer.ID,
		ProductID: productID,
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID int64) int32 {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

// placeOrder runs a full COD checkout of the current cart and returns the
// created orders.
func (f *fixture) placeOrder(t *testing.T, buyer domain.Actor) []domain.Order {
	t.Helper()
	addressID := int64(1)
	if buyer.ID == buyerWholesale.ID {
		addressID = 2
	}
	orders, err := f.checkout.Checkout(context.Background(), buyer, CheckoutParams{
		ShippingAddressID: addressID,
		PaymentMethod:     domain.PaymentMethodCOD,
	})
	require.NoError(t, err)
	return orders
}
