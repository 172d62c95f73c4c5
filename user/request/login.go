package request

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
)

const passwordMask = "***"

type LoginRequest struct {
	Email    string `validate:"required,email,max=254" json:"email"`
	Password string `validate:"required,max=72"        json:"password"`
}

// NormalizedEmail is the form emails are stored and looked up in.
func (l LoginRequest) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

func (l LoginRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str(log.KeyEmail, l.Email).Str("password", passwordMask)
}

func (l LoginRequest) MarshalJSON() ([]byte, error) {
	type masked LoginRequest
	l.Password = passwordMask
	return json.Marshal(masked(l))
}
