package payment

import (
	"errors"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// Every processor failure also matches errors.ErrPaymentFailed.
var (
	ErrPaymentUnauthorized   = errors.Join(errors.New("payment processor rejected credentials"), inErrors.ErrPaymentFailed)
	ErrPaymentInvalidRequest = errors.Join(errors.New("payment processor rejected request"), inErrors.ErrPaymentFailed)
	ErrNetwork               = errors.Join(errors.New("payment processor unreachable"), inErrors.ErrPaymentFailed)
	ErrSubCentAmount         = errors.New("amount has fractions of a cent")
)
