package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// DBTX is the subset of pgx satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Querier against PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Querier = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// db returns the transaction from ctx when running inside TxManager.Do,
// otherwise the pool.
func (p *Postgres) db(ctx context.Context) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return p.pool
}

// =============================================================================
// Products
// =============================================================================

const getProductQuery = `
SELECT id, vendor_id, name, retail_price, retail_unit,
       wholesale_enabled, wholesale_price, wholesale_unit,
       stock_quantity, version, published, updated_at
FROM products
WHERE id = $1`

const getProductTiersQuery = `
SELECT min_quantity, price_per_unit
FROM product_price_tiers
WHERE product_id = $1
ORDER BY min_quantity`

func (p *Postgres) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	db := p.db(ctx)

	var prod domain.Product
	// wholesale_unit is nullable like wholesale_price; retail-only
	// products leave both NULL.
	var wholesaleUnit *string
	err := db.QueryRow(ctx, getProductQuery, id).Scan(
		&prod.ID,
		&prod.VendorID,
		&prod.Name,
		&prod.RetailPrice,
		&prod.RetailUnit,
		&prod.WholesaleEnabled,
		&prod.WholesalePrice,
		&wholesaleUnit,
		&prod.StockQuantity,
		&prod.Version,
		&prod.Published,
		&prod.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if wholesaleUnit != nil {
		prod.WholesaleUnit = *wholesaleUnit
	}

	rows, err := db.Query(ctx, getProductTiersQuery, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %d tiers: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier domain.PriceTier
		if err := rows.Scan(&tier.MinQuantity, &tier.PricePerUnit); err != nil {
			return domain.Product{}, fmt.Errorf("scan price tier: %w", err)
		}
		prod.Tiers = append(prod.Tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("read price tiers: %w", err)
	}

	return prod, nil
}

const updateProductStockQuery = `
UPDATE products
SET stock_quantity = $2, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $3`

func (p *Postgres) UpdateProductStock(ctx context.Context, arg UpdateProductStockParams) (int64, error) {
	tag, err := p.db(ctx).Exec(ctx, updateProductStockQuery, arg.ID, arg.Stock, arg.Version)
	if err != nil {
		return 0, fmt.Errorf("update product %d stock: %w", arg.ID, err)
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Cart lines
// =============================================================================

const getCartLinesQuery = `
SELECT id, buyer_id, product_id, quantity, created_at, updated_at
FROM cart_lines
WHERE buyer_id = $1
ORDER BY created_at`

func (p *Postgres) GetCartLines(ctx context.Context, buyerID int64) ([]domain.CartLine, error) {
	rows, err := p.db(ctx).Query(ctx, getCartLinesQuery, buyerID)
	if err != nil {
		return nil, fmt.Errorf("get cart lines for buyer %d: %w", buyerID, err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.BuyerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

const getCartLineQuery = `
SELECT id, buyer_id, product_id, quantity, created_at, updated_at
FROM cart_lines
WHERE buyer_id = $1 AND product_id = $2`

func (p *Postgres) GetCartLine(ctx context.Context, buyerID, productID int64) (domain.CartLine, error) {
	var line domain.CartLine
	err := p.db(ctx).QueryRow(ctx, getCartLineQuery, buyerID, productID).Scan(
		&line.ID, &line.BuyerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CartLine{}, domain.ErrCartLineNotFound
		}
		return domain.CartLine{}, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

const upsertCartLineQuery = `
INSERT INTO cart_lines (buyer_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (buyer_id, product_id)
DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
RETURNING id, buyer_id, product_id, quantity, created_at, updated_at`

func (p *Postgres) UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) (domain.CartLine, error) {
	var line domain.CartLine
	err := p.db(ctx).QueryRow(ctx, upsertCartLineQuery, arg.BuyerID, arg.ProductID, arg.Quantity).Scan(
		&line.ID, &line.BuyerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("upsert cart line: %w", err)
	}
	return line, nil
}

func (p *Postgres) DeleteCartLine(ctx context.Context, buyerID, productID int64) error {
	tag, err := p.db(ctx).Exec(ctx, `DELETE FROM cart_lines WHERE buyer_id = $1 AND product_id = $2`, buyerID, productID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (p *Postgres) ClearCart(ctx context.Context, buyerID int64) error {
	if _, err := p.db(ctx).Exec(ctx, `DELETE FROM cart_lines WHERE buyer_id = $1`, buyerID); err != nil {
		return fmt.Errorf("clear cart for buyer %d: %w", buyerID, err)
	}
	return nil
}

// =============================================================================
// Orders
// =============================================================================

const createOrderQuery = `
INSERT INTO orders (
	code, buyer_id, vendor_id, category, status, payment_method, payment_status,
	subtotal, shipping_fee, discount, total,
	ship_full_name, ship_phone, ship_address_line, ship_ward_code, ship_district_code, ship_province_code,
	notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING id, created_at, updated_at`

const createOrderItemQuery = `
INSERT INTO order_items (order_id, product_id, product_name, unit, price, quantity, line_total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

const createPaymentQuery = `
INSERT INTO payments (order_id, method, amount, status, transaction_ref, message)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

// CreateOrder persists an order aggregate: the order row, its items and its
// payment records. Assigns generated ids back onto the aggregate. Meant to
// run inside TxManager.Do together with the stock reservations.
func (p *Postgres) CreateOrder(ctx context.Context, order *domain.Order) error {
	db := p.db(ctx)

	err := db.QueryRow(ctx, createOrderQuery,
		order.Code, order.BuyerID, order.VendorID, string(order.Category),
		string(order.Status), string(order.PaymentMethod), string(order.PaymentStatus),
		order.Subtotal, order.ShippingFee, order.Discount, order.Total,
		order.Shipping.FullName, order.Shipping.Phone, order.Shipping.AddressLine,
		order.Shipping.WardCode, order.Shipping.DistrictCode, order.Shipping.ProvinceCode,
		order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "orders_code_key" {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert order %s: %w", order.Code, err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := db.QueryRow(ctx, createOrderItemQuery,
			item.OrderID, item.ProductID, item.ProductName, item.Unit,
			item.Price, item.Quantity, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
		}
	}

	for i := range order.Payments {
		pay := &order.Payments[i]
		pay.OrderID = order.ID
		err := db.QueryRow(ctx, createPaymentQuery,
			pay.OrderID, string(pay.Method), pay.Amount, string(pay.Status),
			pay.TransactionRef, pay.Message,
		).Scan(&pay.ID, &pay.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment for order %d: %w", order.ID, err)
		}
	}

	return nil
}

const getOrderQuery = `
SELECT id, code, buyer_id, vendor_id, category, status, payment_method, payment_status,
       subtotal, shipping_fee, discount, total,
       ship_full_name, ship_phone, ship_address_line, ship_ward_code, ship_district_code, ship_province_code,
       notes, created_at, updated_at
FROM orders
WHERE `

func (p *Postgres) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	return p.getOrder(ctx, getOrderQuery+`id = $1`, id)
}

func (p *Postgres) GetOrderByCode(ctx context.Context, code string) (domain.Order, error) {
	return p.getOrder(ctx, getOrderQuery+`code = $1`, code)
}

func (p *Postgres) getOrder(ctx context.Context, query string, arg any) (domain.Order, error) {
	order, err := scanOrder(p.db(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	if order.Items, err = p.getOrderItems(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	if order.Payments, err = p.getOrderPayments(ctx, order.ID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (p *Postgres) getOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := p.db(ctx).Query(ctx, `
SELECT id, order_id, product_id, product_name, unit, price, quantity, line_total
FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Unit, &it.Price, &it.Quantity, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (p *Postgres) getOrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	rows, err := p.db(ctx).Query(ctx, `
SELECT id, order_id, method, amount, status, transaction_ref, message, created_at
FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get payments for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var pay domain.Payment
		var method, status string
		if err := rows.Scan(&pay.ID, &pay.OrderID, &method, &pay.Amount, &status, &pay.TransactionRef, &pay.Message, &pay.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		pay.Method = domain.PaymentMethod(method)
		pay.Status = domain.TxnStatus(status)
		payments = append(payments, pay)
	}
	return payments, rows.Err()
}

func (p *Postgres) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return p.listOrders(ctx, getOrderQuery+`buyer_id = $1 ORDER BY created_at DESC`, buyerID)
}

func (p *Postgres) ListOrdersByVendor(ctx context.Context, vendorID int64) ([]domain.Order, error) {
	return p.listOrders(ctx, getOrderQuery+`vendor_id = $1 ORDER BY created_at DESC`, vendorID)
}

func (p *Postgres) listOrders(ctx context.Context, query string, arg any) ([]domain.Order, error) {
	rows, err := p.db(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

const updateOrderStatusQuery = `
UPDATE orders
SET status = $2, payment_status = $3, updated_at = now()
WHERE id = $1`

func (p *Postgres) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	tag, err := p.db(ctx).Exec(ctx, updateOrderStatusQuery, arg.ID, string(arg.Status), string(arg.PaymentStatus))
	if err != nil {
		return fmt.Errorf("update order %d status: %w", arg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (p *Postgres) AppendPayment(ctx context.Context, payment *domain.Payment) error {
	err := p.db(ctx).QueryRow(ctx, createPaymentQuery,
		payment.OrderID, string(payment.Method), payment.Amount, string(payment.Status),
		payment.TransactionRef, payment.Message,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("append payment for order %d: %w", payment.OrderID, err)
	}
	return nil
}

// scanOrder reads one order row in the column order of getOrderQuery.
func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var category, status, method, payStatus string
	err := row.Scan(
		&o.ID, &o.Code, &o.BuyerID, &o.VendorID, &category, &status, &method, &payStatus,
		&o.Subtotal, &o.ShippingFee, &o.Discount, &o.Total,
		&o.Shipping.FullName, &o.Shipping.Phone, &o.Shipping.AddressLine,
		&o.Shipping.WardCode, &o.Shipping.DistrictCode, &o.Shipping.ProvinceCode,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Category = domain.BuyerCategory(category)
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	return o, nil
}
