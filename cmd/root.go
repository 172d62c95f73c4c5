package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
)

func Start() {
	logPath := os.Getenv("APPLICATION_LOG_PATH")
	if logPath == "" {
		logPath = fmt.Sprintf("/var/log/%s.log", constants.AppStorefront)
	}
	logger := log.InitLogger(logPath, os.Getenv("APPLICATION_ENV")).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	var down bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.Context(), down)
		},
	}
	migrateCmd.Flags().BoolVar(&down, "down", false, "roll back every migration instead of applying them")

	rootCmd := &cobra.Command{Use: constants.AppStorefront}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:     constants.AppStorefront,
			Aliases: []string{"serve"},
			Short:   "Run storefront http server",
			Run: func(cmd *cobra.Command, args []string) {
				runStorefront(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "notification",
			Short: "Run order confirmation listener",
			Run: func(cmd *cobra.Command, args []string) {
				runNotification(cmd.Context())
			},
		},
		migrateCmd,
		catalogCommand(),
		ordersCommand(),
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
