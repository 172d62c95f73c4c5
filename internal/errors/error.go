package errors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCheckoutStep      = errors.New("checkout step is not reachable yet")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrEmptyAuth         = errors.New("missing authorization")
	ErrEmptySubject      = errors.New("missing subject")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrUserNotFound      = errors.New("user not found")
	ErrPasswordMismatch  = errors.New("password mismatch")
	ErrEmailTaken        = errors.New("email is already registered")
	ErrFailedHashToken   = errors.New("failed hashing token")
	ErrSessionNotFound   = errors.New("session not found")
	ErrOrderNotPending   = errors.New("order is no longer pending")
	ErrOrderNotShippable = errors.New("order cannot be shipped in its current status")
)

// ValidationError carries field level messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) ValidationError {
	return ValidationError{Fields: map[string]string{field: message}}
}

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (v ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StepError rejects entering a checkout step before Required is complete.
type StepError struct {
	Step     string
	Required string
}

func (s StepError) Error() string {
	return ErrCheckoutStep.Error() + ": complete " + s.Required + " before " + s.Step
}

func (s StepError) Is(target error) bool {
	return target == ErrCheckoutStep
}
