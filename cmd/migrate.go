package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/infra"
	"github.com/Alturino/storefront/internal/log"
)

func runMigration(c context.Context, down bool) error {
	direction := infra.MigrationUp
	if down {
		direction = infra.MigrationDown
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main runMigration").
		Str(log.KeyMigrationDirection, string(direction)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	cfg := config.InitConfig(c, constants.AppStorefront)
	logger.Info().Msg("initialized config")

	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer pool.Close()

	logger = logger.With().Str(log.KeyProcess, "migrating database").Logger()
	logger.Info().Msg("migrating database")
	if err := infra.Migrate(logger.WithContext(c), pool, cfg.Database, direction); err != nil {
		err = fmt.Errorf("failed migrating database with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("migrated database")
	return nil
}
