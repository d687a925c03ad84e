package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appserver "github.com/lexand-dev/vid-skool/internal/app/server"
	"github.com/lexand-dev/vid-skool/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the asset schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := appserver.NewLogger(cfg)

		_, cleanup, err := appserver.NewDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		logger.Info().Str("driver", cfg.Database.Driver).Msg("schema migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
