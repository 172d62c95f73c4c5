package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/otel"
	"github.com/Alturino/storefront/cart/request"
	"github.com/Alturino/storefront/cart/response"
	"github.com/Alturino/storefront/cart/service"
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

type CartController struct {
	service  *service.CartService
	sessions SessionSaver
}

func AttachCartController(router *mux.Router, service *service.CartService, sessions SessionSaver) {
	controller := CartController{service: service, sessions: sessions}

	carts := router.PathPrefix("/cart").Subrouter()
	carts.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	carts.HandleFunc("", controller.UpdateCart).Methods(http.MethodPost)
	carts.HandleFunc("/add", controller.AddItem).Methods(http.MethodPost)
	carts.HandleFunc("/remove", controller.RemoveItem).Methods(http.MethodPost)
	carts.HandleFunc("/update", controller.UpdateItem).Methods(http.MethodPost)
}

// resolve finds the request's cart and persists the session when resolving changed it.
func (ctrl CartController) resolve(c context.Context, w http.ResponseWriter) (response.Cart, bool) {
	logger := zerolog.Ctx(c)
	rc := session.FromContext(c)

	cart, _, err := ctrl.service.ResolveCart(c, rc)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return response.Cart{}, false
	}
	if rc.Session.Dirty() {
		if err = ctrl.sessions.Save(c, rc.Session); err != nil {
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteErrorResponse(c, w, err)
			return response.Cart{}, false
		}
	}
	return cart, true
}

func decode(c context.Context, r *http.Request, body interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return inErrors.NewValidationError("body", fmt.Sprintf("malformed request body: %s", err.Error()))
	}
	return validate.StructCtx(c, body)
}

func writeCart(c context.Context, w http.ResponseWriter, message string, cart response.Cart) {
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    message,
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController FindCart").Logger()
	c = logger.WithContext(c)

	cart, ok := ctrl.resolve(c, w)
	if !ok {
		return
	}
	logger.Trace().Int64(log.KeyCartID, cart.ID).Msg("found cart")

	writeCart(c, w, "successfully found cart", cart)
}

func (ctrl CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)
	logger.Trace().Msg("decoded request body")

	current, ok := ctrl.resolve(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	cart, err := ctrl.service.AddItem(c, current.ID, reqBody.ProductID, reqBody.Qty())
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item to cart")

	writeCart(c, w, "successfully added item to cart", cart)
}

func (ctrl CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateItem").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.UpdateItem{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)

	current, ok := ctrl.resolve(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating cart item").Logger()
	cart, err := ctrl.service.UpdateQuantity(c, current.ID, reqBody.ProductID, reqBody.Quantity)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated cart item")

	writeCart(c, w, "successfully updated cart item", cart)
}

func (ctrl CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.RemoveItem{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)

	current, ok := ctrl.resolve(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	cart, err := ctrl.service.RemoveItem(c, current.ID, reqBody.ProductID)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed cart item")

	writeCart(c, w, "successfully removed cart item", cart)
}

func (ctrl CartController) UpdateCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateCart").
		Str(log.KeyProcess, "decoding request body").
		Logger()

	reqBody := request.UpdateCart{}
	if err := decode(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	c = logger.WithContext(c)

	current, ok := ctrl.resolve(c, w)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating cart").Logger()
	cart, err := ctrl.service.UpdateQuantities(c, current.ID, reqBody.Items)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated cart")

	writeCart(c, w, "successfully updated cart", cart)
}
