package infra

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// NewCacheClient connects to redis, which backs sessions, the taxonomy cache and
// order events. Any failure here is fatal.
func NewCacheClient(c context.Context, cfg config.Cache) *redis.Client {
	c, span := otel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewCacheClient").
		Str(log.KeyCacheAddr, addr).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing redis client").Logger()
	logger.Info().Msg("initializing redis client")
	cache := redis.NewClient(&redis.Options{
		Addr:         addr,
		ClientName:   constants.AppStorefront,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	logger.Info().Msg("initialized redis client")

	logger = logger.With().Str(log.KeyProcess, "instrumenting redis client").Logger()
	logger.Info().Msg("instrumenting redis client")
	if err := redisotel.InstrumentTracing(cache, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis tracing with error=%w", err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	if err := redisotel.InstrumentMetrics(cache, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis metrics with error=%w", err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("instrumented redis client")

	logger = logger.With().Str(log.KeyProcess, "pinging redis").Logger()
	logger.Info().Msg("pinging redis")
	if err := cache.Ping(c).Err(); err != nil {
		err = fmt.Errorf("failed pinging redis at %s with error=%w", addr, err)
		otel.RecordError(err, span)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("pinged redis")
	return cache
}
