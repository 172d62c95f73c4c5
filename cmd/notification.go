package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/notification/service"
)

func runNotification(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppNotificationService).
		Str(log.KeyTag, "main runNotification").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.AppStorefront)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppNotificationService, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
		defer cancel()
		if err := otel.ShutdownOtel(shutdownCtx, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	cache := infra.NewCacheClient(logger.WithContext(c), cfg.Cache)
	defer cache.Close()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "listening").Logger()
	listener := service.NewListener(cache, service.ConfirmationLogger{}, cfg.Notification.Workers)
	if err := listener.Run(logger.WithContext(c)); err != nil {
		err = fmt.Errorf("failed listening for order paid events with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("stopped notification listener")
}
