package request

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Alturino/storefront/internal/repository"
)

// Address is a postal address as entered in the address book or at checkout.
type Address struct {
	FirstName     string `validate:"required,max=150"              json:"first_name"`
	LastName      string `validate:"required,max=150"              json:"last_name"`
	StreetAddress string `validate:"required,max=255"              json:"street_address"`
	Apartment     string `validate:"max=255"                       json:"apartment"`
	City          string `validate:"required,max=100"              json:"city"`
	State         string `validate:"max=100"                       json:"state"`
	PostalCode    string `validate:"required,max=20"               json:"postal_code"`
	Country       string `validate:"required,iso3166_1_alpha2"     json:"country"`
	Phone         string `validate:"max=32"                        json:"phone"`
}

func (a Address) InsertParams(userID pgtype.UUID, addressType string, isDefault bool) repository.InsertAddressParams {
	return repository.InsertAddressParams{
		UserID:        userID,
		AddressType:   addressType,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		StreetAddress: a.StreetAddress,
		Apartment:     a.Apartment,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		Phone:         a.Phone,
		IsDefault:     isDefault,
	}
}

// AddressFromRow copies a stored address so it can be saved again under another type.
func AddressFromRow(row repository.Address) Address {
	return Address{
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		StreetAddress: row.StreetAddress,
		Apartment:     row.Apartment,
		City:          row.City,
		State:         row.State,
		PostalCode:    row.PostalCode,
		Country:       row.Country,
		Phone:         row.Phone,
	}
}

type CreateAddress struct {
	Address
	AddressType string `validate:"required,oneof=SHIPPING BILLING" json:"address_type"`
	IsDefault   bool   `json:"is_default"`
}
