package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/order/internal/otel"
	"github.com/Alturino/storefront/order/service"
)

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(router *mux.Router, service *service.OrderService) {
	controller := OrderController{service: service}

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.RequireAuth)
	orders.HandleFunc("", controller.ListOrders).Methods(http.MethodGet)
	orders.HandleFunc("/{orderNumber}", controller.FindOrderByNumber).Methods(http.MethodGet)
}

func (ctrl OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController ListOrders")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController ListOrders").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeyProcess, "listing orders").
		Logger()

	logger.Trace().Msg("listing orders")
	c = logger.WithContext(c)
	orders, err := ctrl.service.ListOrders(c, userID)
	if err != nil {
		err = fmt.Errorf("failed listing orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Int("count", len(orders)).Msg("listed orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully listed orders",
		"data": map[string]interface{}{
			"orders": orders,
		},
	})
}

func (ctrl OrderController) FindOrderByNumber(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderByNumber")
	defer span.End()

	userID, _ := session.PrincipalFromContext(c)
	pathValues := mux.Vars(r)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderByNumber").
		Str(log.KeyUserID, userID.String()).
		Any(log.KeyPathValues, pathValues).
		Logger()

	c = logger.WithContext(c)
	order, err := ctrl.service.FindOrderByNumber(c, userID, pathValues["orderNumber"])
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully found order",
		"data": map[string]interface{}{
			"order": order,
		},
	})
}
