package response

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/repository"
)

type Cart struct {
	ID        int64         `json:"id"`
	UserID    uuid.NullUUID `json:"user_id"`
	Items     []CartItem    `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type CartItem struct {
	ID          int64           `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
	Quantity    int32           `json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt32(i.Quantity))
}

// TotalPrice uses the live product prices the items were loaded with.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += int(item.Quantity)
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantities maps product id to quantity.
func (c Cart) Quantities() map[uuid.UUID]int32 {
	out := make(map[uuid.UUID]int32, len(c.Items))
	for _, item := range c.Items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type alias Cart
	return json.Marshal(struct {
		alias
		TotalPrice decimal.Decimal `json:"total_price"`
		ItemCount  int             `json:"item_count"`
	}{alias: alias(c), TotalPrice: c.TotalPrice(), ItemCount: c.ItemCount()})
}

func FromRows(cart repository.Cart, rows []repository.FindCartItemsRow) Cart {
	items := make([]CartItem, len(rows))
	for i, row := range rows {
		items[i] = CartItem{
			ID:          row.ID,
			ProductID:   row.ProductID,
			Name:        row.ProductName,
			Slug:        row.ProductSlug,
			Description: row.ProductDescription,
			Price:       repository.DecimalFromNumeric(row.ProductPrice),
			IsAvailable: row.ProductIsAvailable,
			Quantity:    row.Quantity,
		}
	}
	return Cart{
		ID:        cart.ID,
		UserID:    repository.NullUUIDFromPg(cart.UserID),
		Items:     items,
		CreatedAt: cart.CreatedAt.Time,
		UpdatedAt: cart.UpdatedAt.Time,
	}
}
