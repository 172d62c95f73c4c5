package response

import (
	orderResponse "github.com/Alturino/storefront/order/response"
	userResponse "github.com/Alturino/storefront/user/response"
)

// Step is what a checkout page needs to render: the synced order, where the visitor is and
// the addresses already chosen.
type Step struct {
	Step            string                 `json:"step"`
	NextStep        string                 `json:"next_step"`
	Order           orderResponse.Order    `json:"order"`
	ShippingAddress *userResponse.Address  `json:"shipping_address,omitempty"`
	BillingAddress  *userResponse.Address  `json:"billing_address,omitempty"`
	SavedAddresses  []userResponse.Address `json:"saved_addresses,omitempty"`
}

type PaymentIntent struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// OrderPaid is published once a payment is confirmed.
type OrderPaid struct {
	OrderID         int64  `json:"order_id"`
	OrderNumber     string `json:"order_number"`
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email"`
	TotalPrice      string `json:"total_price"`
	PaymentIntentID string `json:"payment_intent_id"`
	PaidAt          string `json:"paid_at"`
}
