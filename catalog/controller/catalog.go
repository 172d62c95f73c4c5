package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/catalog/internal/otel"
	"github.com/Alturino/storefront/catalog/request"
	"github.com/Alturino/storefront/catalog/service"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	inOtel "github.com/Alturino/storefront/internal/otel"
)

type CatalogController struct {
	service *service.CatalogService
}

func AttachCatalogController(router *mux.Router, service *service.CatalogService) {
	controller := CatalogController{service: service}

	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("", controller.ListProducts).Methods(http.MethodGet)
	products.HandleFunc("/{slug}", controller.FindProductBySlug).Methods(http.MethodGet)

	router.HandleFunc("/taxonomy", controller.Taxonomy).Methods(http.MethodGet)
}

func (ctrl CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController ListProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController ListProducts").
		Str(log.KeyProcess, "parsing filter").
		Logger()

	logger.Trace().Msg("parsing filter")
	filter, err := request.ParseProductFilter(r.URL.Query())
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Trace().Msg("parsed filter")

	logger = logger.With().Str(log.KeyProcess, "listing products").Logger()
	c = logger.WithContext(c)
	page, err := ctrl.service.ListProducts(c, filter)
	if err != nil {
		err = fmt.Errorf("failed listing products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("listed products")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully listed products",
		"data":       page,
	})
}

func (ctrl CatalogController) FindProductBySlug(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController FindProductBySlug")
	defer span.End()

	pathValues := mux.Vars(r)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CatalogController FindProductBySlug").
		Any(log.KeyPathValues, pathValues).
		Logger()

	c = logger.WithContext(c)
	product, err := ctrl.service.FindProductBySlug(c, pathValues["slug"])
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully found product",
		"data": map[string]interface{}{
			"product": product,
		},
	})
}

func (ctrl CatalogController) Taxonomy(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CatalogController Taxonomy")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CatalogController Taxonomy").Logger()

	c = logger.WithContext(c)
	taxonomy, err := ctrl.service.Taxonomy(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully found taxonomy",
		"data":       taxonomy,
	})
}
