package service

import (
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

// Steps lists the checkout sequence. An order stores the furthest step it completed,
// starting at CheckoutStepNone.
var Steps = []string{
	constants.CheckoutStepNone,
	constants.CheckoutStepContact,
	constants.CheckoutStepShipping,
	constants.CheckoutStepBilling,
	constants.CheckoutStepPayment,
	constants.CheckoutStepComplete,
}

func stepIndex(step string) int {
	for i, s := range Steps {
		if s == step {
			return i
		}
	}
	return -1
}

// IsStep reports whether step is one a visitor can enter.
func IsStep(step string) bool {
	i := stepIndex(step)
	return i > 0 && i < len(Steps)-1
}

// Reachable checks that every step before step is complete when the order got as far as
// completed. The error names the first incomplete step.
func Reachable(completed, step string) error {
	current, target := stepIndex(completed), stepIndex(step)
	if current < 0 {
		current = 0
	}
	if target <= current+1 {
		return nil
	}
	return inErrors.StepError{Step: step, Required: Steps[current+1]}
}

// Next returns the step after step, or CheckoutStepComplete at the end.
func Next(step string) string {
	i := stepIndex(step)
	if i < 0 || i >= len(Steps)-1 {
		return constants.CheckoutStepComplete
	}
	return Steps[i+1]
}
