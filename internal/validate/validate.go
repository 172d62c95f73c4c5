package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
		_ = validate.RegisterValidation("money", ValidateMoney)
	})
	return validate
}

// ValidateMoney accepts non negative amounts with at most two decimal places.
func ValidateMoney(fl validator.FieldLevel) bool {
	var d decimal.Decimal
	switch v := fl.Field().Interface().(type) {
	case string:
		if v == "" {
			return true
		}
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return false
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		return false
	}
	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

func decimalValue(v reflect.Value) interface{} {
	switch n := v.Interface().(type) {
	case decimal.Decimal:
		return n.String()
	case decimal.NullDecimal:
		if !n.Valid {
			return ""
		}
		return n.Decimal.String()
	}
	return nil
}

// StructCtx validates s and converts validator failures into a field level ValidationError.
func StructCtx(c context.Context, s interface{}) error {
	err := get().StructCtx(c, s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields[fieldName(fieldErr)] = message(fieldErr)
	}
	return inErrors.ValidationError{Fields: fields}
}

func fieldName(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fieldErr.Field()
}

func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "gte", "min":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "lte", "max":
		return fmt.Sprintf("must be less than or equal to %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fieldErr.Param())
	case "money":
		return "must be a non negative amount with at most two decimal places"
	case "required_without", "required_if", "required_unless":
		return "this field is required"
	}
	return fmt.Sprintf("failed on the %q rule", fieldErr.Tag())
}
