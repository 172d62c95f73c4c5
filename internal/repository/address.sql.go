package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const addressColumns = `id, user_id, address_type, first_name, last_name, street_address, apartment, city, state,
    postal_code, country, phone, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...interface{}) error }) (Address, error) {
	var i Address
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.AddressType,
		&i.FirstName,
		&i.LastName,
		&i.StreetAddress,
		&i.Apartment,
		&i.City,
		&i.State,
		&i.PostalCode,
		&i.Country,
		&i.Phone,
		&i.IsDefault,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const insertAddress = `-- name: InsertAddress :one
INSERT INTO addresses (
    user_id, address_type, first_name, last_name, street_address, apartment, city, state,
    postal_code, country, phone, is_default
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + addressColumns

type InsertAddressParams struct {
	UserID        pgtype.UUID `json:"user_id"`
	AddressType   string      `json:"address_type"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	StreetAddress string      `json:"street_address"`
	Apartment     string      `json:"apartment"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	PostalCode    string      `json:"postal_code"`
	Country       string      `json:"country"`
	Phone         string      `json:"phone"`
	IsDefault     bool        `json:"is_default"`
}

func (q *Queries) InsertAddress(ctx context.Context, arg InsertAddressParams) (Address, error) {
	row := q.db.QueryRow(ctx, insertAddress,
		arg.UserID,
		arg.AddressType,
		arg.FirstName,
		arg.LastName,
		arg.StreetAddress,
		arg.Apartment,
		arg.City,
		arg.State,
		arg.PostalCode,
		arg.Country,
		arg.Phone,
		arg.IsDefault,
	)
	return scanAddress(row)
}

const findAddressById = `-- name: FindAddressById :one
SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

func (q *Queries) FindAddressById(ctx context.Context, id int64) (Address, error) {
	row := q.db.QueryRow(ctx, findAddressById, id)
	return scanAddress(row)
}

const findAddressByIdAndUserId = `-- name: FindAddressByIdAndUserId :one
SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`

func (q *Queries) FindAddressByIdAndUserId(ctx context.Context, id int64, userID uuid.UUID) (Address, error) {
	row := q.db.QueryRow(ctx, findAddressByIdAndUserId, id, userID)
	return scanAddress(row)
}

const findAddressesByUserId = `-- name: FindAddressesByUserId :many
SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1
ORDER BY address_type, is_default DESC, created_at DESC, id DESC`

func (q *Queries) FindAddressesByUserId(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	rows, err := q.db.Query(ctx, findAddressesByUserId, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Address{}
	for rows.Next() {
		i, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAddressesByUserIdAndType = `-- name: CountAddressesByUserIdAndType :one
SELECT count(*) FROM addresses WHERE user_id = $1 AND address_type = $2`

func (q *Queries) CountAddressesByUserIdAndType(ctx context.Context, userID uuid.UUID, addressType string) (int64, error) {
	row := q.db.QueryRow(ctx, countAddressesByUserIdAndType, userID, addressType)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const clearDefaultAddress = `-- name: ClearDefaultAddress :exec
UPDATE addresses SET is_default = FALSE, updated_at = now()
WHERE user_id = $1 AND address_type = $2 AND is_default`

func (q *Queries) ClearDefaultAddress(ctx context.Context, userID uuid.UUID, addressType string) error {
	_, err := q.db.Exec(ctx, clearDefaultAddress, userID, addressType)
	return err
}

const setDefaultAddress = `-- name: SetDefaultAddress :one
UPDATE addresses SET is_default = TRUE, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + addressColumns

func (q *Queries) SetDefaultAddress(ctx context.Context, id int64, userID uuid.UUID) (Address, error) {
	row := q.db.QueryRow(ctx, setDefaultAddress, id, userID)
	return scanAddress(row)
}

const deleteAddress = `-- name: DeleteAddress :execrows
DELETE FROM addresses WHERE id = $1 AND user_id = $2`

func (q *Queries) DeleteAddress(ctx context.Context, id int64, userID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAddress, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
