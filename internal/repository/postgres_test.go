package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTx satisfies pgx.Tx just far enough to feed canned rows to the
// scanning code. It rides the same context key PgxTxManager uses, so the
// Postgres querier picks it up instead of the (nil) pool. Unimplemented
// methods panic through the embedded nil interface.
type stubTx struct {
	pgx.Tx

	row stubRow
}

func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.row
}

func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return emptyRows{}, nil
}

// stubRow plays back one row of column values. A nil value is NULL:
// pointer destinations get nil, plain destinations fail the way pgx does.
type stubRow struct {
	vals []any
}

func (r stubRow) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return fmt.Errorf("expected %d destinations, got %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		v := r.vals[i]
		if v == nil {
			switch p := d.(type) {
			case **string:
				*p = nil
			case **int64:
				*p = nil
			default:
				return fmt.Errorf("cannot scan NULL into %T", d)
			}
			continue
		}
		switch p := d.(type) {
		case *int64:
			*p = v.(int64)
		case *int32:
			*p = v.(int32)
		case *string:
			*p = v.(string)
		case *bool:
			*p = v.(bool)
		case *time.Time:
			*p = v.(time.Time)
		case **int64:
			n := v.(int64)
			*p = &n
		case **string:
			s := v.(string)
			*p = &s
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

type emptyRows struct {
	pgx.Rows
}

func (emptyRows) Close() {}
func (emptyRows) Next() bool { return false }
func (emptyRows) Err() error { return nil }

func productRow(wholesalePrice any, wholesaleUnit any) stubRow {
	return stubRow{vals: []any{
		int64(1),       // id
		int64(10),      // vendor_id
		"Gạo ST25",     // name
		int64(25000),   // retail_price
		"kg",           // retail_unit
		false,          // wholesale_enabled
		wholesalePrice, // wholesale_price
		wholesaleUnit,  // wholesale_unit
		int32(40),      // stock_quantity
		int64(3),       // version
		true,           // published
		time.Now(),     // updated_at
	}}
}

func txContext(tx pgx.Tx) context.Context {
	return context.WithValue(context.Background(), txKey{}, tx)
}

func TestPostgresGetProduct_NullWholesaleColumns(t *testing.T) {
	// Retail-only products leave wholesale_price and wholesale_unit NULL.
	ctx := txContext(&stubTx{row: productRow(nil, nil)})

	product, err := NewPostgres(nil).GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Gạo ST25", product.Name)
	assert.Nil(t, product.WholesalePrice)
	assert.Equal(t, "", product.WholesaleUnit)
	assert.Equal(t, int32(40), product.StockQuantity)
	assert.Equal(t, int64(3), product.Version)
}

func TestPostgresGetProduct_WholesaleColumns(t *testing.T) {
	ctx := txContext(&stubTx{row: productRow(int64(22000), "bao")})

	product, err := NewPostgres(nil).GetProduct(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, product.WholesalePrice)
	assert.Equal(t, int64(22000), *product.WholesalePrice)
	assert.Equal(t, "bao", product.WholesaleUnit)
}
