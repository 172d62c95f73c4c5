package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const StatusSucceeded = "succeeded"

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type createPaymentIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a two decimal amount to cents.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("failed converting amount=%s with error=%w", amount.String(), ErrSubCentAmount)
	}
	return cents.IntPart(), nil
}
