package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartController "github.com/Alturino/storefront/cart/controller"
	cartService "github.com/Alturino/storefront/cart/service"
	catalogController "github.com/Alturino/storefront/catalog/controller"
	catalogService "github.com/Alturino/storefront/catalog/service"
	checkoutController "github.com/Alturino/storefront/checkout/controller"
	checkoutService "github.com/Alturino/storefront/checkout/service"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/internal/session"
	orderController "github.com/Alturino/storefront/order/controller"
	orderService "github.com/Alturino/storefront/order/service"
	userController "github.com/Alturino/storefront/user/controller"
	userService "github.com/Alturino/storefront/user/service"
)

const shutdownTimeout = 15 * time.Second

func runStorefront(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main runStorefront").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.AppStorefront)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppStorefront, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
		defer cancel()
		if err := otel.ShutdownOtel(shutdownCtx, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	db := infra.NewDatabaseClient(c, cfg.Database)
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down database").Logger()
		logger.Info().Msg("shutting down database")
		db.Close()
		logger.Info().Msg("shutdown database")
	}()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "migrating database").Logger()
	logger.Info().Msg("migrating database")
	if err := infra.Migrate(logger.WithContext(c), db, cfg.Database, infra.MigrationUp); err != nil {
		err = fmt.Errorf("failed migrating database with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("migrated database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer func() {
		logger = logger.With().Str(log.KeyProcess, "shutting down cache").Logger()
		logger.Info().Msg("shutting down cache")
		if err := cache.Close(); err != nil {
			err = fmt.Errorf("failed shutting down cache with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown cache")
	}()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	queries := repository.New(db)
	sessions := session.NewStore(cache, cfg.Session)
	payments := payment.NewClient(cfg.Payment)
	catalogs := catalogService.NewCatalogService(db, queries, cache)
	carts := cartService.NewCartService(db, queries, sessions)
	orders := orderService.NewOrderService(db, queries)
	checkouts := checkoutService.NewCheckoutService(db, queries, cache, carts, orders, payments)
	users := userService.NewUserService(queries, cfg.Application)
	addresses := userService.NewAddressService(db, queries)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(
		otelmux.Middleware(constants.AppStorefront),
		middleware.RecoverPanic,
		middleware.Logging,
		middleware.Session(sessions),
		middleware.Authenticate(cfg.Application.SecretKey),
	)
	catalogController.AttachCatalogController(api, catalogs)
	cartController.AttachCartController(api, carts, sessions)
	orderController.AttachOrderController(api, orders)
	checkoutController.AttachCheckoutController(api, checkouts, sessions)
	userController.AttachUserController(api, users, addresses, carts, sessions)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg(err.Error())
			return
		}
	case <-c.Done():
		logger.Info().Msg("received interuption signal shutting down")
	}

	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
