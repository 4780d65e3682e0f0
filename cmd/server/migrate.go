package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/agrodesk/internal/config"
	"github.com/iliyamo/agrodesk/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect schema migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := "up"
		if len(args) == 1 {
			direction = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		ctx := cmd.Context()
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()

		switch direction {
		case "down":
			return database.MigrateDown(ctx, db)
		case "status":
			return database.MigrateStatus(ctx, db)
		default:
			return database.MigrateUp(ctx, db)
		}
	},
}
