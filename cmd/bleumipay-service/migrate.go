package main

import (
	"fmt"

	"github.com/LavaJover/shvark-bleumipay-service/internal/config"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-bleumipay-service/internal/infrastructure/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations of the configured driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			db := postgres.MustInitDB(cfg)
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := migrate.RunMigrations(db, cfg.ReconDB.Driver, cfg.ReconDB.MigrationsPath); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}
