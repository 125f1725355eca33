package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/domain/address"
)

const (
	addressColumns = `id, full_name, mobile_number, pincode, locality, address_line1, address_line2,
		city, state, landmark, alternate_phone, address_type, created_at`

	listAddressesSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY created_at DESC, id`

	getAddressSQL = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`

	createAddressSQL = `INSERT INTO addresses (user_id, ` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	updateAddressSQL = `UPDATE addresses SET
			full_name = $3, mobile_number = $4, pincode = $5, locality = $6,
			address_line1 = $7, address_line2 = $8, city = $9, state = $10,
			landmark = $11, alternate_phone = $12, address_type = $13
		WHERE user_id = $1 AND id = $2`

	deleteAddressSQL = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
// Every query is scoped to the owning user.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

func (r *AddressRepository) List(ctx context.Context, userID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

func (r *AddressRepository) Get(ctx context.Context, userID, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

func (r *AddressRepository) Create(ctx context.Context, userID string, a *address.Address) error {
	f := a.Fields
	_, err := r.pool.Exec(ctx, createAddressSQL,
		userID, a.ID, f.FullName, f.MobileNumber, f.Pincode, f.Locality,
		f.AddressLine1, f.AddressLine2, f.City, f.State, f.Landmark,
		f.AlternatePhone, string(f.Type), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating address %q: %w", a.ID, err)
	}
	return nil
}

func (r *AddressRepository) Update(ctx context.Context, userID string, a *address.Address) error {
	f := a.Fields
	tag, err := r.pool.Exec(ctx, updateAddressSQL,
		userID, a.ID, f.FullName, f.MobileNumber, f.Pincode, f.Locality,
		f.AddressLine1, f.AddressLine2, f.City, f.State, f.Landmark,
		f.AlternatePhone, string(f.Type),
	)
	if err != nil {
		return fmt.Errorf("updating address %q: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, userID, id)
	if err != nil {
		return fmt.Errorf("deleting address %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var (
		a   address.Address
		typ string
	)
	err := row.Scan(
		&a.ID, &a.FullName, &a.MobileNumber, &a.Pincode, &a.Locality,
		&a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.Landmark,
		&a.AlternatePhone, &typ, &a.CreatedAt,
	)
	a.Type = address.Type(typ)
	return a, err
}
