package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/storefront/internal/repository"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func UserFromRow(row repository.User) User {
	return User{
		ID:        row.ID,
		Username:  row.Username,
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Phone:     row.Phone,
		CreatedAt: row.CreatedAt.Time,
	}
}

type Address struct {
	ID            int64  `json:"id"`
	AddressType   string `json:"address_type"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	IsDefault     bool   `json:"is_default"`
}

func AddressFromRow(row repository.Address) Address {
	return Address{
		ID:            row.ID,
		AddressType:   row.AddressType,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		StreetAddress: row.StreetAddress,
		Apartment:     row.Apartment,
		City:          row.City,
		State:         row.State,
		PostalCode:    row.PostalCode,
		Country:       row.Country,
		Phone:         row.Phone,
		IsDefault:     row.IsDefault,
	}
}

func AddressesFromRows(rows []repository.Address) []Address {
	addresses := make([]Address, len(rows))
	for i, row := range rows {
		addresses[i] = AddressFromRow(row)
	}
	return addresses
}
