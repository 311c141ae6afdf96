package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfields-vn/chomart/internal/domain"
)

func TestNewOrderCode(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	code, err := newOrderCode(now)
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-20260829-[A-HJKMNP-Z2-9]{6}$`, code)

	// Ambiguous characters never appear in the suffix.
	assert.NotRegexp(t, `[01OIL]`, code[len("ORD-20260829-"):])

	seen := map[string]bool{code: true}
	for i := 0; i < 50; i++ {
		next, err := newOrderCode(now)
		require.NoError(t, err)
		seen[next] = true
	}
	assert.Greater(t, len(seen), 45, "codes should be effectively unique")
}

func TestPartitionByVendor(t *testing.T) {
	lines := []checkoutLine{
		{product: domain.Product{ID: 1, VendorID: 10}},
		{product: domain.Product{ID: 2, VendorID: 11}},
		{product: domain.Product{ID: 3, VendorID: 10}},
		{product: domain.Product{ID: 4, VendorID: 12}},
	}

	groups := partitionByVendor(lines)
	require.Len(t, groups, 3)

	// Stable first-appearance order.
	assert.Equal(t, int64(10), groups[0].vendorID)
	assert.Equal(t, int64(11), groups[1].vendorID)
	assert.Equal(t, int64(12), groups[2].vendorID)
	assert.Len(t, groups[0].lines, 2)
	assert.Len(t, groups[1].lines, 1)
	assert.Len(t, groups[2].lines, 1)

	assert.Empty(t, partitionByVendor(nil))
}
