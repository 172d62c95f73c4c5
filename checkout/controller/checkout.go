package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/request"
	"github.com/Alturino/storefront/checkout/service"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/validate"
)

type SessionSaver interface {
	Save(c context.Context, sess *session.Session) error
}

type CheckoutController struct {
	service  *service.CheckoutService
	sessions SessionSaver
}

func AttachCheckoutController(router *mux.Router, service *service.CheckoutService, sessions SessionSaver) {
	controller := CheckoutController{service: service, sessions: sessions}

	checkout := router.PathPrefix("/checkout").Subrouter()
	checkout.HandleFunc("/{step}", controller.View).Methods(http.MethodGet)
	checkout.HandleFunc("/contact", controller.SubmitContact).Methods(http.MethodPost)
	checkout.HandleFunc("/shipping", controller.SubmitShipping).Methods(http.MethodPost)
	checkout.HandleFunc("/billing", controller.SubmitBilling).Methods(http.MethodPost)
	checkout.HandleFunc("/payment-intent", controller.CreatePaymentIntent).Methods(http.MethodPost)
	checkout.HandleFunc("/payment", controller.ConfirmPayment).Methods(http.MethodPost)
}

func decode(c context.Context, r *http.Request, body interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return inErrors.NewValidationError("body", fmt.Sprintf("malformed request body: %s", err.Error()))
	}
	return validate.StructCtx(c, body)
}

// saveSession persists what resolving the cart and order changed, even when the step
// itself failed afterwards.
func (ctrl CheckoutController) saveSession(c context.Context, rc session.RequestContext) error {
	if !rc.Session.Dirty() {
		return nil
	}
	return ctrl.sessions.Save(c, rc.Session)
}

// finish saves the session and writes either err or data.
func (ctrl CheckoutController) finish(
	c context.Context,
	w http.ResponseWriter,
	rc session.RequestContext,
	message string,
	data map[string]interface{},
	err error,
) {
	logger := zerolog.Ctx(c)
	if saveErr := ctrl.saveSession(c, rc); saveErr != nil {
		logger.Error().Err(saveErr).Msg(saveErr.Error())
		if err == nil {
			err = saveErr
		}
	}
	if err != nil {
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    message,
		"data":       data,
	})
}

func (ctrl CheckoutController) View(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController View")
	defer span.End()

	step := strings.ToUpper(mux.Vars(r)["step"])
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController View").
		Str(log.KeyCheckoutStep, step).
		Logger()
	c = logger.WithContext(c)

	if !service.IsStep(step) {
		err := fmt.Errorf("failed entering checkout step=%s with error=%w", step, inErrors.ErrNotFound)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	rc := session.FromContext(c)
	view, err := ctrl.service.View(c, rc, step)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	ctrl.finish(c, w, rc, "successfully entered checkout step", map[string]interface{}{"checkout": view}, err)
}

func (ctrl CheckoutController) SubmitContact(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController SubmitContact")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController SubmitContact").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	reqBody := request.Contact{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Str(log.KeyProcess, "submitting contact").Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	view, err := ctrl.service.SubmitContact(c, rc, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	ctrl.finish(c, w, rc, "successfully saved contact", map[string]interface{}{"checkout": view}, err)
}

func (ctrl CheckoutController) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController SubmitShipping")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController SubmitShipping").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	reqBody := request.Shipping{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Str(log.KeyProcess, "submitting shipping").Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	view, err := ctrl.service.SubmitShipping(c, rc, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	ctrl.finish(c, w, rc, "successfully saved shipping address", map[string]interface{}{"checkout": view}, err)
}

func (ctrl CheckoutController) SubmitBilling(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController SubmitBilling")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController SubmitBilling").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	reqBody := request.Billing{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Str(log.KeyProcess, "submitting billing").Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	view, err := ctrl.service.SubmitBilling(c, rc, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	ctrl.finish(c, w, rc, "successfully saved billing address", map[string]interface{}{"checkout": view}, err)
}

func (ctrl CheckoutController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController CreatePaymentIntent")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController CreatePaymentIntent").
		Str(log.KeyProcess, "creating payment intent").
		Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	intent, err := ctrl.service.CreatePaymentIntent(c, rc)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	ctrl.finish(c, w, rc, "successfully created payment intent", map[string]interface{}{
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.IntentID,
		"amount":        intent.Amount,
		"currency":      intent.Currency,
	}, err)
}

func (ctrl CheckoutController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController ConfirmPayment")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutController ConfirmPayment").
		Str(log.KeyProcess, "decoding request body").
		Logger()
	c = logger.WithContext(c)

	reqBody := request.ConfirmPayment{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().
		Str(log.KeyPaymentIntentID, reqBody.PaymentIntentID).
		Str(log.KeyProcess, "confirming payment").
		Logger()
	c = logger.WithContext(c)

	rc := session.FromContext(c)
	order, err := ctrl.service.ConfirmPayment(c, rc, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Str(log.KeyOrderNumber, order.OrderNumber).Msg("confirmed payment")
	}
	ctrl.finish(c, w, rc, "successfully confirmed payment", map[string]interface{}{"order": order}, err)
}
