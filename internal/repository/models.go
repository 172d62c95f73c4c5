package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID        uuid.UUID          `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Password  string             `json:"-"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Phone     string             `json:"phone"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Category struct {
	ID       int32       `json:"id"`
	ParentID pgtype.Int4 `json:"parent_id"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
}

type Purpose struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Material struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type BodyPart struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Product struct {
	ID          uuid.UUID          `json:"id"`
	CategoryID  int32              `json:"category_id"`
	MaterialID  pgtype.Int4        `json:"material_id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	Price       pgtype.Numeric     `json:"price"`
	IsAvailable bool               `json:"is_available"`
	Stock       int32              `json:"stock"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type Cart struct {
	ID        int64              `json:"id"`
	UserID    pgtype.UUID        `json:"user_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type CartItem struct {
	ID        int64              `json:"id"`
	CartID    int64              `json:"cart_id"`
	ProductID uuid.UUID          `json:"product_id"`
	Quantity  int32              `json:"quantity"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Address struct {
	ID            int64              `json:"id"`
	UserID        pgtype.UUID        `json:"user_id"`
	AddressType   string             `json:"address_type"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	StreetAddress string             `json:"street_address"`
	Apartment     string             `json:"apartment"`
	City          string             `json:"city"`
	State         string             `json:"state"`
	PostalCode    string             `json:"postal_code"`
	Country       string             `json:"country"`
	Phone         string             `json:"phone"`
	IsDefault     bool               `json:"is_default"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type Order struct {
	ID                int64              `json:"id"`
	OrderNumber       string             `json:"order_number"`
	UserID            pgtype.UUID        `json:"user_id"`
	Status            string             `json:"status"`
	CheckoutStep      string             `json:"checkout_step"`
	Email             string             `json:"email"`
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	Phone             string             `json:"phone"`
	ShippingAddressID pgtype.Int8        `json:"shipping_address_id"`
	BillingAddressID  pgtype.Int8        `json:"billing_address_id"`
	TotalPrice        pgtype.Numeric     `json:"total_price"`
	PaymentIntentID   pgtype.Text        `json:"payment_intent_id"`
	PaymentAmount     pgtype.Numeric     `json:"payment_amount"`
	PaidAt            pgtype.Timestamptz `json:"paid_at"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
	Notes             string             `json:"notes"`
	TrackingNumber    string             `json:"tracking_number"`
	EstimatedDelivery pgtype.Date        `json:"estimated_delivery"`
}

type OrderItem struct {
	ID                 int64              `json:"id"`
	OrderID            int64              `json:"order_id"`
	ProductID          pgtype.UUID        `json:"product_id"`
	ProductName        string             `json:"product_name"`
	ProductDescription string             `json:"product_description"`
	Price              pgtype.Numeric     `json:"price"`
	Quantity           int32              `json:"quantity"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
}

type ProductImage struct {
	ID          int64              `json:"id"`
	ProductID   uuid.UUID          `json:"product_id"`
	Image       string             `json:"image"`
	AltText     string             `json:"alt_text"`
	IsPrimary   bool               `json:"is_primary"`
	IsSecondary bool               `json:"is_secondary"`
	Position    int32              `json:"position"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}
