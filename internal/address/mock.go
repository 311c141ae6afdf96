package address

import "context"

// MockProvider is a test implementation of Provider backed by a fixed set
// of addresses.
type MockProvider struct {
	GetAddressFunc func(ctx context.Context, addressID, ownerID int64) (Address, error)

	// Addresses is consulted when GetAddressFunc is nil.
	Addresses []Address
}

var _ Provider = (*MockProvider)(nil)

// GetAddress delegates to GetAddressFunc when set, otherwise searches
// Addresses enforcing ownership.
func (m *MockProvider) GetAddress(ctx context.Context, addressID, ownerID int64) (Address, error) {
	if m.GetAddressFunc != nil {
		return m.GetAddressFunc(ctx, addressID, ownerID)
	}
	for _, addr := range m.Addresses {
		if addr.ID == addressID && addr.OwnerID == ownerID {
			return addr, nil
		}
	}
	return Address{}, ErrAddressNotFound
}
