package domain

import "time"

// CartLine is one product a buyer intends to purchase. Ephemeral: deleted
// once consumed by checkout or removed explicitly. At most one line per
// (buyer, product); quantity is always at least 1.
type CartLine struct {
	ID        int64
	BuyerID   int64
	ProductID int64
	Quantity  int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartView is a cart line joined with live catalog data for display.
// Prices shown here are advisory only: checkout re-resolves every price
// from freshly-read product data inside its transaction.
type CartView struct {
	Line         CartLine
	ProductName  string
	VendorID     int64
	Unit         string
	PricePerUnit int64
	LineTotal    int64
	Available    bool
}

var (
	ErrCartLineNotFound = &Error{Code: ENOTFOUND, Message: "Cart line not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}
)
