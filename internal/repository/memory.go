package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// memTxKey marks a context as running inside Memory.Do, where the store
// mutex is already held.
type memTxKey struct{}

// Memory is an in-memory Querier and TxManager used in tests. Do serializes
// transactions under one mutex and rolls back by restoring a snapshot, which
// gives the same all-or-nothing visibility the Postgres transaction manager
// provides.
type Memory struct {
	mu sync.Mutex

	products  map[int64]domain.Product
	cartLines map[int64]domain.CartLine
	orders    map[int64]domain.Order
	codeIndex map[string]int64

	cartSeq    int64
	orderSeq   int64
	itemSeq    int64
	paymentSeq int64
}

var (
	_ Querier   = (*Memory)(nil)
	_ TxManager = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		products:  make(map[int64]domain.Product),
		cartLines: make(map[int64]domain.CartLine),
		orders:    make(map[int64]domain.Order),
		codeIndex: make(map[string]int64),
	}
}

// Do runs fn with the store locked. On error every mutation fn made is
// discarded.
func (m *Memory) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *Memory) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

type memorySnapshot struct {
	products  map[int64]domain.Product
	cartLines map[int64]domain.CartLine
	orders    map[int64]domain.Order
	codeIndex map[string]int64

	cartSeq, orderSeq, itemSeq, paymentSeq int64
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		products:   make(map[int64]domain.Product, len(m.products)),
		cartLines:  make(map[int64]domain.CartLine, len(m.cartLines)),
		orders:     make(map[int64]domain.Order, len(m.orders)),
		codeIndex:  make(map[string]int64, len(m.codeIndex)),
		cartSeq:    m.cartSeq,
		orderSeq:   m.orderSeq,
		itemSeq:    m.itemSeq,
		paymentSeq: m.paymentSeq,
	}
	for id, p := range m.products {
		snap.products[id] = cloneProduct(p)
	}
	for id, l := range m.cartLines {
		snap.cartLines[id] = l
	}
	for id, o := range m.orders {
		snap.orders[id] = cloneOrder(o)
	}
	for code, id := range m.codeIndex {
		snap.codeIndex[code] = id
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.products = snap.products
	m.cartLines = snap.cartLines
	m.orders = snap.orders
	m.codeIndex = snap.codeIndex
	m.cartSeq = snap.cartSeq
	m.orderSeq = snap.orderSeq
	m.itemSeq = snap.itemSeq
	m.paymentSeq = snap.paymentSeq
}

func cloneProduct(p domain.Product) domain.Product {
	out := p
	if p.WholesalePrice != nil {
		v := *p.WholesalePrice
		out.WholesalePrice = &v
	}
	out.Tiers = append([]domain.PriceTier(nil), p.Tiers...)
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	out.Payments = append([]domain.Payment(nil), o.Payments...)
	return out
}

// =============================================================================
// Seeding
// =============================================================================

// PutProduct stores or replaces a product. Test setup helper.
func (m *Memory) PutProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	m.products[p.ID] = cloneProduct(p)
}

// DeleteProduct removes a product entirely. Test setup helper for
// dangling-reference scenarios.
func (m *Memory) DeleteProduct(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

// =============================================================================
// Products
// =============================================================================

func (m *Memory) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	defer m.lock(ctx)()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) UpdateProductStock(ctx context.Context, arg UpdateProductStockParams) (int64, error) {
	defer m.lock(ctx)()

	p, ok := m.products[arg.ID]
	if !ok || p.Version != arg.Version {
		return 0, nil
	}
	p.StockQuantity = arg.Stock
	p.Version++
	p.UpdatedAt = time.Now()
	m.products[arg.ID] = p
	return 1, nil
}

// =============================================================================
// Cart lines
// =============================================================================

func (m *Memory) GetCartLines(ctx context.Context, buyerID int64) ([]domain.CartLine, error) {
	defer m.lock(ctx)()

	var lines []domain.CartLine
	for _, l := range m.cartLines {
		if l.BuyerID == buyerID {
			lines = append(lines, l)
		}
	}
	sortCartLines(lines)
	return lines, nil
}

func (m *Memory) GetCartLine(ctx context.Context, buyerID, productID int64) (domain.CartLine, error) {
	defer m.lock(ctx)()

	for _, l := range m.cartLines {
		if l.BuyerID == buyerID && l.ProductID == productID {
			return l, nil
		}
	}
	return domain.CartLine{}, domain.ErrCartLineNotFound
}

func (m *Memory) UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) (domain.CartLine, error) {
	defer m.lock(ctx)()

	now := time.Now()
	for id, l := range m.cartLines {
		if l.BuyerID == arg.BuyerID && l.ProductID == arg.ProductID {
			l.Quantity = arg.Quantity
			l.UpdatedAt = now
			m.cartLines[id] = l
			return l, nil
		}
	}

	m.cartSeq++
	line := domain.CartLine{
		ID:        m.cartSeq,
		BuyerID:   arg.BuyerID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.cartLines[line.ID] = line
	return line, nil
}

func (m *Memory) DeleteCartLine(ctx context.Context, buyerID, productID int64) error {
	defer m.lock(ctx)()

	for id, l := range m.cartLines {
		if l.BuyerID == buyerID && l.ProductID == productID {
			delete(m.cartLines, id)
			return nil
		}
	}
	return domain.ErrCartLineNotFound
}

func (m *Memory) ClearCart(ctx context.Context, buyerID int64) error {
	defer m.lock(ctx)()

	for id, l := range m.cartLines {
		if l.BuyerID == buyerID {
			delete(m.cartLines, id)
		}
	}
	return nil
}

func sortCartLines(lines []domain.CartLine) {
	slices.SortFunc(lines, func(a, b domain.CartLine) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// =============================================================================
// Orders
// =============================================================================

func (m *Memory) CreateOrder(ctx context.Context, order *domain.Order) error {
	defer m.lock(ctx)()

	if _, exists := m.codeIndex[order.Code]; exists {
		return domain.ErrDuplicateCode
	}

	now := time.Now()
	m.orderSeq++
	order.ID = m.orderSeq
	order.CreatedAt = now
	order.UpdatedAt = now

	for i := range order.Items {
		m.itemSeq++
		order.Items[i].ID = m.itemSeq
		order.Items[i].OrderID = order.ID
	}
	for i := range order.Payments {
		m.paymentSeq++
		order.Payments[i].ID = m.paymentSeq
		order.Payments[i].OrderID = order.ID
		order.Payments[i].CreatedAt = now
	}

	m.orders[order.ID] = cloneOrder(*order)
	m.codeIndex[order.Code] = order.ID
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	defer m.lock(ctx)()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) GetOrderByCode(ctx context.Context, code string) (domain.Order, error) {
	defer m.lock(ctx)()

	id, ok := m.codeIndex[code]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *Memory) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return m.listOrders(ctx, func(o domain.Order) bool { return o.BuyerID == buyerID })
}

func (m *Memory) ListOrdersByVendor(ctx context.Context, vendorID int64) ([]domain.Order, error) {
	return m.listOrders(ctx, func(o domain.Order) bool { return o.VendorID == vendorID })
}

func (m *Memory) listOrders(ctx context.Context, match func(domain.Order) bool) ([]domain.Order, error) {
	defer m.lock(ctx)()

	var orders []domain.Order
	for _, o := range m.orders {
		if match(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return orders, nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	defer m.lock(ctx)()

	o, ok := m.orders[arg.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = arg.Status
	o.PaymentStatus = arg.PaymentStatus
	o.UpdatedAt = time.Now()
	m.orders[arg.ID] = o
	return nil
}

func (m *Memory) AppendPayment(ctx context.Context, payment *domain.Payment) error {
	defer m.lock(ctx)()

	o, ok := m.orders[payment.OrderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	m.paymentSeq++
	payment.ID = m.paymentSeq
	payment.CreatedAt = time.Now()
	o.Payments = append(o.Payments, *payment)
	m.orders[payment.OrderID] = o
	return nil
}
