package request

import (
	inErrors "github.com/Alturino/storefront/internal/errors"
	userRequest "github.com/Alturino/storefront/user/request"
)

type Contact struct {
	Email     string `validate:"required,email,max=254" json:"email"`
	FirstName string `validate:"required,max=150"       json:"first_name"`
	LastName  string `validate:"required,max=150"       json:"last_name"`
	Phone     string `validate:"omitempty,max=32"       json:"phone"`
	Notes     string `validate:"max=1000"               json:"notes"`
}

// Shipping names either a saved address of the user or a new address.
type Shipping struct {
	AddressID     int64                `validate:"omitempty,gte=1" json:"address_id"`
	Address       *userRequest.Address `validate:"omitempty"       json:"address"`
	SaveAsDefault bool                 `json:"save_as_default"`
}

func (s Shipping) Check() error {
	return checkAddressSource(s.AddressID, s.Address)
}

// Billing either copies the shipping address or names an address like Shipping.
type Billing struct {
	SameAsShipping bool                 `json:"same_as_shipping"`
	AddressID      int64                `validate:"omitempty,gte=1" json:"address_id"`
	Address        *userRequest.Address `validate:"omitempty"       json:"address"`
	SaveAsDefault  bool                 `json:"save_as_default"`
}

func (b Billing) Check() error {
	if b.SameAsShipping {
		return nil
	}
	return checkAddressSource(b.AddressID, b.Address)
}

func checkAddressSource(addressID int64, address *userRequest.Address) error {
	switch {
	case addressID == 0 && address == nil:
		return inErrors.NewValidationError("address", "either address or address_id is required")
	case addressID != 0 && address != nil:
		return inErrors.NewValidationError("address", "address and address_id are mutually exclusive")
	}
	return nil
}

type ConfirmPayment struct {
	PaymentIntentID string `validate:"required,max=255" json:"payment_intent_id"`
}
