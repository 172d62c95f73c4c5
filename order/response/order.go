package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/repository"
)

type Order struct {
	ID                int64               `json:"id"`
	OrderNumber       string              `json:"order_number"`
	UserID            uuid.NullUUID       `json:"user_id"`
	Status            string              `json:"status"`
	CheckoutStep      string              `json:"checkout_step"`
	Email             string              `json:"email"`
	FirstName         string              `json:"first_name"`
	LastName          string              `json:"last_name"`
	Phone             string              `json:"phone"`
	ShippingAddressID int64               `json:"shipping_address_id,omitempty"`
	BillingAddressID  int64               `json:"billing_address_id,omitempty"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	PaymentIntentID   string              `json:"payment_intent_id,omitempty"`
	PaymentAmount     decimal.NullDecimal `json:"payment_amount"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	EstimatedDelivery string              `json:"estimated_delivery,omitempty"`
	Items             []OrderItem         `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line taken when the order was last synced.
type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   uuid.NullUUID   `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int32           `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt32(i.Quantity))
}

func FromRows(order repository.Order, rows []repository.OrderItem) Order {
	items := make([]OrderItem, len(rows))
	for i, row := range rows {
		items[i] = OrderItem{
			ID:          row.ID,
			ProductID:   repository.NullUUIDFromPg(row.ProductID),
			Name:        row.ProductName,
			Description: row.ProductDescription,
			Price:       repository.DecimalFromNumeric(row.Price),
			Quantity:    row.Quantity,
		}
	}
	o := Order{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            repository.NullUUIDFromPg(order.UserID),
		Status:            order.Status,
		CheckoutStep:      order.CheckoutStep,
		Email:             order.Email,
		FirstName:         order.FirstName,
		LastName:          order.LastName,
		Phone:             order.Phone,
		ShippingAddressID: order.ShippingAddressID.Int64,
		BillingAddressID:  order.BillingAddressID.Int64,
		TotalPrice:        repository.DecimalFromNumeric(order.TotalPrice),
		PaymentIntentID:   order.PaymentIntentID.String,
		PaymentAmount:     repository.NullDecimalFromNumeric(order.PaymentAmount),
		Notes:             order.Notes,
		TrackingNumber:    order.TrackingNumber,
		Items:             items,
		CreatedAt:         order.CreatedAt.Time,
		UpdatedAt:         order.UpdatedAt.Time,
	}
	if order.PaidAt.Valid {
		paidAt := order.PaidAt.Time
		o.PaidAt = &paidAt
	}
	if order.EstimatedDelivery.Valid {
		o.EstimatedDelivery = order.EstimatedDelivery.Time.Format(time.DateOnly)
	}
	return o
}

// WithRow refreshes the order fields from row and keeps the already loaded items.
func (o Order) WithRow(row repository.Order) Order {
	refreshed := FromRows(row, nil)
	refreshed.Items = o.Items
	return refreshed
}
