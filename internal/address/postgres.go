package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider reads addresses from the addresses table.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

var _ Provider = (*PostgresProvider)(nil)

func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

const getAddressQuery = `
SELECT id, owner_id, full_name, phone, address_line, ward_code, district_code, province_code, is_default
FROM addresses
WHERE id = $1 AND owner_id = $2`

func (p *PostgresProvider) GetAddress(ctx context.Context, addressID, ownerID int64) (Address, error) {
	var addr Address
	err := p.pool.QueryRow(ctx, getAddressQuery, addressID, ownerID).Scan(
		&addr.ID,
		&addr.OwnerID,
		&addr.FullName,
		&addr.Phone,
		&addr.AddressLine,
		&addr.WardCode,
		&addr.DistrictCode,
		&addr.ProvinceCode,
		&addr.IsDefault,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, ErrAddressNotFound
		}
		return Address{}, fmt.Errorf("get address %d: %w", addressID, err)
	}
	return addr, nil
}
