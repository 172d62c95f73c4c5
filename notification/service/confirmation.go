package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	checkoutResponse "github.com/Alturino/storefront/checkout/response"
	"github.com/Alturino/storefront/internal/log"
)

var ErrNoRecipient = errors.New("order has no contact email")

// ConfirmationLogger writes the order confirmation to the log.
type ConfirmationLogger struct{}

func (ConfirmationLogger) OrderPaid(c context.Context, event checkoutResponse.OrderPaid) error {
	if event.Email == "" {
		return fmt.Errorf("failed sending confirmation for order=%s with error=%w", event.OrderNumber, ErrNoRecipient)
	}
	zerolog.Ctx(c).Info().
		Str(log.KeyOrderNumber, event.OrderNumber).
		Str(log.KeyEmail, event.Email).
		Str(log.KeyTotalPrice, event.TotalPrice).
		Str(log.KeyPaidAt, event.PaidAt).
		Msgf("order %s confirmed, total %s", event.OrderNumber, event.TotalPrice)
	return nil
}
