package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, user_id, status, checkout_step, email, first_name, last_name, phone,
    shipping_address_id, billing_address_id, total_price, payment_intent_id, payment_amount, paid_at,
    created_at, updated_at, notes, tracking_number, estimated_delivery`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.UserID,
		&i.Status,
		&i.CheckoutStep,
		&i.Email,
		&i.FirstName,
		&i.LastName,
		&i.Phone,
		&i.ShippingAddressID,
		&i.BillingAddressID,
		&i.TotalPrice,
		&i.PaymentIntentID,
		&i.PaymentAmount,
		&i.PaidAt,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.Notes,
		&i.TrackingNumber,
		&i.EstimatedDelivery,
	)
	return i, err
}

func collectOrders(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
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

const nextOrderNumber = `-- name: NextOrderNumber :one
UPDATE order_number_counters SET value = value + 1 WHERE id RETURNING value`

// NextOrderNumber increments the single counter row. The row lock is held until the
// surrounding transaction ends, so concurrent writers are serialized and a rolled back
// order releases its number.
func (q *Queries) NextOrderNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, nextOrderNumber)
	var value int64
	err := row.Scan(&value)
	return value, err
}

const insertOrder = `-- name: InsertOrder :one
INSERT INTO orders (order_number, user_id, email, first_name, last_name, phone)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

type InsertOrderParams struct {
	OrderNumber string      `json:"order_number"`
	UserID      pgtype.UUID `json:"user_id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       string      `json:"phone"`
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, insertOrder,
		arg.OrderNumber,
		arg.UserID,
		arg.Email,
		arg.FirstName,
		arg.LastName,
		arg.Phone,
	)
	return scanOrder(row)
}

const findOrderById = `-- name: FindOrderById :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) FindOrderById(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, findOrderById, id)
	return scanOrder(row)
}

const findOrderByIdForUpdate = `-- name: FindOrderByIdForUpdate :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

func (q *Queries) FindOrderByIdForUpdate(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, findOrderByIdForUpdate, id)
	return scanOrder(row)
}

const findPendingOrderByUserId = `-- name: FindPendingOrderByUserId :one
SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND status = 'PENDING'`

func (q *Queries) FindPendingOrderByUserId(ctx context.Context, userID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, findPendingOrderByUserId, userID)
	return scanOrder(row)
}

const findAnonymousPendingOrderById = `-- name: FindAnonymousPendingOrderById :one
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id IS NULL AND status = 'PENDING'`

func (q *Queries) FindAnonymousPendingOrderById(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, findAnonymousPendingOrderById, id)
	return scanOrder(row)
}

const findOrderByNumberAndUserId = `-- name: FindOrderByNumberAndUserId :one
SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND user_id = $2`

func (q *Queries) FindOrderByNumberAndUserId(ctx context.Context, orderNumber string, userID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, findOrderByNumberAndUserId, orderNumber, userID)
	return scanOrder(row)
}

const findOrdersByUserId = `-- name: FindOrdersByUserId :many
SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

func (q *Queries) FindOrdersByUserId(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, findOrdersByUserId, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const updateOrderContact = `-- name: UpdateOrderContact :one
UPDATE orders SET email = $2, first_name = $3, last_name = $4, phone = $5, notes = $6, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderContactParams struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

func (q *Queries) UpdateOrderContact(ctx context.Context, arg UpdateOrderContactParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderContact, arg.ID, arg.Email, arg.FirstName, arg.LastName, arg.Phone, arg.Notes)
	return scanOrder(row)
}

const updateOrderShippingAddress = `-- name: UpdateOrderShippingAddress :one
UPDATE orders SET shipping_address_id = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderShippingAddress(ctx context.Context, id int64, addressID int64) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderShippingAddress, id, addressID)
	return scanOrder(row)
}

const updateOrderBillingAddress = `-- name: UpdateOrderBillingAddress :one
UPDATE orders SET billing_address_id = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderBillingAddress(ctx context.Context, id int64, addressID int64) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderBillingAddress, id, addressID)
	return scanOrder(row)
}

const updateOrderCheckoutStep = `-- name: UpdateOrderCheckoutStep :one
UPDATE orders SET checkout_step = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderCheckoutStep(ctx context.Context, id int64, step string) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderCheckoutStep, id, step)
	return scanOrder(row)
}

const updateOrderPaymentIntent = `-- name: UpdateOrderPaymentIntent :one
UPDATE orders SET payment_intent_id = $2, payment_amount = $3, updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderPaymentIntent(
	ctx context.Context,
	id int64,
	paymentIntentID string,
	amount pgtype.Numeric,
) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPaymentIntent, id, paymentIntentID, amount)
	return scanOrder(row)
}

const markOrderPaid = `-- name: MarkOrderPaid :one
UPDATE orders SET status = 'PROCESSING', checkout_step = 'COMPLETE', paid_at = now(), updated_at = now()
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + orderColumns

func (q *Queries) MarkOrderPaid(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderPaid, id)
	return scanOrder(row)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, id int64, status string) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, id, status)
	return scanOrder(row)
}

const recomputeOrderTotal = `-- name: RecomputeOrderTotal :one
UPDATE orders SET total_price = (
    SELECT COALESCE(SUM(oi.price * oi.quantity), 0) FROM order_items oi WHERE oi.order_id = orders.id
), updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) RecomputeOrderTotal(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, recomputeOrderTotal, id)
	return scanOrder(row)
}

const deleteOrderItems = `-- name: DeleteOrderItems :execrows
DELETE FROM order_items WHERE order_id = $1`

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const snapshotCartIntoOrder = `-- name: SnapshotCartIntoOrder :execrows
INSERT INTO order_items (order_id, product_id, product_name, product_description, price, quantity)
SELECT $1, p.id, p.name, p.description, p.price, ci.quantity
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $2
ORDER BY ci.created_at, ci.id`

// SnapshotCartIntoOrder copies name, description and the current price of every cart line.
func (q *Queries) SnapshotCartIntoOrder(ctx context.Context, orderID int64, cartID int64) (int64, error) {
	result, err := q.db.Exec(ctx, snapshotCartIntoOrder, orderID, cartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findOrderItems = `-- name: FindOrderItems :many
SELECT id, order_id, product_id, product_name, product_description, price, quantity, created_at
FROM order_items WHERE order_id = $1 ORDER BY id`

func (q *Queries) FindOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, findOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.ProductName,
			&i.ProductDescription,
			&i.Price,
			&i.Quantity,
			&i.CreatedAt,
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

const shipOrder = `-- name: ShipOrder :one
UPDATE orders SET status = 'SHIPPED', tracking_number = $2, estimated_delivery = $3, updated_at = now()
WHERE id = $1 AND status = 'PROCESSING'
RETURNING ` + orderColumns

type ShipOrderParams struct {
	ID                int64       `json:"id"`
	TrackingNumber    string      `json:"tracking_number"`
	EstimatedDelivery pgtype.Date `json:"estimated_delivery"`
}

func (q *Queries) ShipOrder(ctx context.Context, arg ShipOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, shipOrder, arg.ID, arg.TrackingNumber, arg.EstimatedDelivery)
	return scanOrder(row)
}

const findOrderByNumberForUpdate = `-- name: FindOrderByNumberForUpdate :one
SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 FOR UPDATE`

func (q *Queries) FindOrderByNumberForUpdate(ctx context.Context, orderNumber string) (Order, error) {
	row := q.db.QueryRow(ctx, findOrderByNumberForUpdate, orderNumber)
	return scanOrder(row)
}
