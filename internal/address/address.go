// Package address resolves a buyer's saved delivery addresses. Checkout
// copies the resolved address into an immutable shipping snapshot on the
// order, so later edits to the address book never change past orders.
package address

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// Address is one entry in a buyer's address book.
type Address struct {
	ID           int64
	OwnerID      int64
	FullName     string
	Phone        string
	AddressLine  string
	WardCode     string
	DistrictCode string
	ProvinceCode string
	IsDefault    bool
}

// Snapshot copies the address into the immutable form stored on orders.
func (a Address) Snapshot() domain.ShippingSnapshot {
	return domain.ShippingSnapshot{
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine:  a.AddressLine,
		WardCode:     a.WardCode,
		DistrictCode: a.DistrictCode,
		ProvinceCode: a.ProvinceCode,
	}
}

// Provider looks up saved addresses.
type Provider interface {
	// GetAddress returns the address only when it exists and belongs to
	// ownerID. A wrong owner reads the same as a missing address.
	GetAddress(ctx context.Context, addressID, ownerID int64) (Address, error)
}

// ErrAddressNotFound covers both a missing address and an address owned by
// someone else.
var ErrAddressNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "Address not found"}
