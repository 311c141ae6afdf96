package domain

import "time"

// OrderStatus is the fulfillment state of an order. Terminal statuses have
// no outgoing transitions; orders are never deleted, they end in a terminal
// status instead.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipping   OrderStatus = "SHIPPING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// Terminal reports whether the status has no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// PaymentStatus tracks the money side of an order, parallel to but coupled
// with OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "PENDING"
	PaymentStatusPaid                 PaymentStatus = "PAID"
	PaymentStatusFailed               PaymentStatus = "FAILED"
	PaymentStatusRefundPending        PaymentStatus = "REFUND_PENDING"
	PaymentStatusRefunded             PaymentStatus = "REFUNDED"
	PaymentStatusRefundManualRequired PaymentStatus = "REFUND_MANUAL_REQUIRED"
)

// PaymentMethod names how the buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodGateway PaymentMethod = "GATEWAY"
)

// TxnStatus is the outcome of a single settlement attempt.
type TxnStatus string

const (
	TxnStatusPending TxnStatus = "PENDING"
	TxnStatusSuccess TxnStatus = "SUCCESS"
	TxnStatusFailed  TxnStatus = "FAILED"
	TxnStatusRefund  TxnStatus = "REFUND"
)

// ShippingSnapshot is the delivery destination copied from the buyer's
// chosen address at checkout time. Immutable afterward: later address-book
// edits must not alter historical orders.
type ShippingSnapshot struct {
	FullName     string
	Phone        string
	AddressLine  string
	WardCode     string
	DistrictCode string
	ProvinceCode string
}

// Order is the root aggregate produced by checkout, one per vendor.
// All amounts are whole VND. Invariant: Total = Subtotal + ShippingFee - Discount,
// every amount non-negative.
type Order struct {
	ID            int64
	Code          string // buyer-facing, e.g. ORD-20260829-X7K2QD
	BuyerID       int64
	VendorID      int64
	Category      BuyerCategory // decided from buyer category at creation
	Status        OrderStatus
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Subtotal      int64
	ShippingFee   int64
	Discount      int64
	Total         int64
	Shipping      ShippingSnapshot
	Notes         string
	Items         []OrderItem
	Payments      []Payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem belongs to exactly one Order. It snapshots product name, unit
// and price at order-creation time, deliberately decoupled from the live
// product so historical orders stay immutable if the catalog changes.
// Invariant: LineTotal = Price * Quantity.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Unit        string
	Price       int64
	Quantity    int32
	LineTotal   int64
}

// Payment records one settlement attempt against an order: the initial
// pending record at creation, a COD settlement on delivery, a refund on
// cancellation.
type Payment struct {
	ID             int64
	OrderID        int64
	Method         PaymentMethod
	Amount         int64
	Status         TxnStatus
	TransactionRef string
	Message        string
	CreatedAt      time.Time
}

// Order-related domain errors.
var (
	ErrOrderNotFound      = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrDuplicateCode      = &Error{Code: ECONFLICT, Message: "Order code already in use"}
	ErrInsufficientStock  = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
	ErrVersionConflict    = &Error{Code: ECONFLICT, Message: "Concurrent update detected"}
	ErrCheckoutConflict   = &Error{Code: ECONFLICT, Message: "Checkout could not complete due to concurrent activity, please retry"}
	ErrInvalidTransition  = &Error{Code: EINVALID, Message: "Order status transition not allowed"}
	ErrProductUnavailable = &Error{Code: EUNPROCESSABLE, Message: "Product is no longer available"}
	ErrEmptyCart          = &Error{Code: EINVALID, Message: "Cart is empty"}
)
