package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, user_id, created_at, updated_at`

func scanCart(row interface{ Scan(...interface{}) error }) (Cart, error) {
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const insertCart = `-- name: InsertCart :one
INSERT INTO carts (user_id) VALUES ($1) RETURNING ` + cartColumns

// InsertCart creates an anonymous cart when userID is not valid.
func (q *Queries) InsertCart(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, insertCart, userID)
	return scanCart(row)
}

const findCartById = `-- name: FindCartById :one
SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

func (q *Queries) FindCartById(ctx context.Context, id int64) (Cart, error) {
	row := q.db.QueryRow(ctx, findCartById, id)
	return scanCart(row)
}

const findCartByIdForUpdate = `-- name: FindCartByIdForUpdate :one
SELECT ` + cartColumns + ` FROM carts WHERE id = $1 FOR UPDATE`

func (q *Queries) FindCartByIdForUpdate(ctx context.Context, id int64) (Cart, error) {
	row := q.db.QueryRow(ctx, findCartByIdForUpdate, id)
	return scanCart(row)
}

const findAnonymousCartById = `-- name: FindAnonymousCartById :one
SELECT ` + cartColumns + ` FROM carts WHERE id = $1 AND user_id IS NULL`

func (q *Queries) FindAnonymousCartById(ctx context.Context, id int64) (Cart, error) {
	row := q.db.QueryRow(ctx, findAnonymousCartById, id)
	return scanCart(row)
}

const findCartByUserId = `-- name: FindCartByUserId :one
SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1`

func (q *Queries) FindCartByUserId(ctx context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, findCartByUserId, userID)
	return scanCart(row)
}

const deleteCart = `-- name: DeleteCart :execrows
DELETE FROM carts WHERE id = $1`

func (q *Queries) DeleteCart(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCart, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const touchCart = `-- name: TouchCart :exec
UPDATE carts SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchCart(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, touchCart, id)
	return err
}

const cartItemColumns = `id, cart_id, product_id, quantity, created_at, updated_at`

func scanCartItem(row interface{ Scan(...interface{}) error }) (CartItem, error) {
	var i CartItem
	err := row.Scan(&i.ID, &i.CartID, &i.ProductID, &i.Quantity, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertCartItem = `-- name: UpsertCartItem :one
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id)
DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
RETURNING ` + cartItemColumns

type UpsertCartItemParams struct {
	CartID    int64     `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

// UpsertCartItem adds quantity to an existing line instead of overwriting it.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, upsertCartItem, arg.CartID, arg.ProductID, arg.Quantity)
	return scanCartItem(row)
}

const updateCartItemQuantity = `-- name: UpdateCartItemQuantity :one
UPDATE cart_items SET quantity = $3, updated_at = now()
WHERE cart_id = $1 AND product_id = $2
RETURNING ` + cartItemColumns

type UpdateCartItemQuantityParams struct {
	CartID    int64     `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, updateCartItemQuantity, arg.CartID, arg.ProductID, arg.Quantity)
	return scanCartItem(row)
}

const deleteCartItem = `-- name: DeleteCartItem :execrows
DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

func (q *Queries) DeleteCartItem(ctx context.Context, cartID int64, productID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartItem, cartID, productID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartItems = `-- name: DeleteCartItems :execrows
DELETE FROM cart_items WHERE cart_id = $1`

func (q *Queries) DeleteCartItems(ctx context.Context, cartID int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartItems, cartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findCartItems = `-- name: FindCartItems :many
SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
    p.name, p.slug, p.description, p.price, p.is_available
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at, ci.id`

type FindCartItemsRow struct {
	CartItem
	ProductName        string         `json:"product_name"`
	ProductSlug        string         `json:"product_slug"`
	ProductDescription string         `json:"product_description"`
	ProductPrice       pgtype.Numeric `json:"product_price"`
	ProductIsAvailable bool           `json:"product_is_available"`
}

func (q *Queries) FindCartItems(ctx context.Context, cartID int64) ([]FindCartItemsRow, error) {
	rows, err := q.db.Query(ctx, findCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FindCartItemsRow{}
	for rows.Next() {
		var i FindCartItemsRow
		if err := rows.Scan(
			&i.ID,
			&i.CartID,
			&i.ProductID,
			&i.Quantity,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ProductName,
			&i.ProductSlug,
			&i.ProductDescription,
			&i.ProductPrice,
			&i.ProductIsAvailable,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
