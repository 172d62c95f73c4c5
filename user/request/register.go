package request

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

type RegisterRequest struct {
	Username  string `validate:"omitempty,max=150"         json:"username"`
	Email     string `validate:"required,email,max=254"    json:"email"`
	Password  string `validate:"required,min=8,max=72"     json:"password"`
	FirstName string `validate:"required,max=150"          json:"first_name"`
	LastName  string `validate:"required,max=150"          json:"last_name"`
	Phone     string `validate:"omitempty,max=32"          json:"phone"`
}

func (r RegisterRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str(log.KeyEmail, r.Email).Str("username", r.Username)
}

func (r RegisterRequest) MarshalJSON() ([]byte, error) {
	r.Password = passwordMask
	type R RegisterRequest
	return json.Marshal(R(r))
}
