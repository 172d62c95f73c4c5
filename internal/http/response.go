package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderApplicationJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// StatusCode maps domain errors to http status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrNotFound),
		errors.Is(err, inErrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrEmptyCart),
		errors.Is(err, inErrors.ErrCheckoutStep),
		errors.Is(err, inErrors.ErrOrderNotPending),
		errors.Is(err, inErrors.ErrOrderNotShippable),
		errors.Is(err, inErrors.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrUnauthenticated),
		errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrTokenInvalid),
		errors.Is(err, inErrors.ErrPasswordMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrPaymentFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse writes the failed envelope for err. Validation failures carry their
// field messages, server errors hide their cause.
func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	statusCode := StatusCode(err)
	body := map[string]interface{}{
		"status":     "failed",
		"statusCode": statusCode,
		"message":    err.Error(),
	}

	var validationErr inErrors.ValidationError
	if errors.As(err, &validationErr) {
		body["message"] = inErrors.ErrValidation.Error()
		body["errors"] = validationErr.Fields
	}
	var stepErr inErrors.StepError
	if errors.As(err, &stepErr) {
		body["required_step"] = stepErr.Required
	}
	switch statusCode {
	case http.StatusInternalServerError:
		body["message"] = http.StatusText(http.StatusInternalServerError)
	case http.StatusBadGateway:
		body["message"] = inErrors.ErrPaymentFailed.Error()
	}

	WriteJsonResponse(c, w, map[string]string{}, body)
}
