package main

import (
	"fmt"
	"strconv"

	"foodshare/internal/config"
	"foodshare/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, _ *config.Config) error {
			return database.MigrateUp(db)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (one step by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			steps = n
		}
		return withDB(cmd, func(db *gorm.DB, _ *config.Config) error {
			return database.MigrateDown(db, steps)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema policy and applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(db *gorm.DB, cfg *config.Config) error {
			status, err := database.GetSchemaStatus(db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			cmd.Printf("mode=%s env=%s run_sql=%t run_auto=%t version=%d dirty=%t\n",
				status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
				status.Version, status.Dirty)
			if !status.WillRunSQL {
				return nil
			}

			available, err := database.MigrationVersions()
			if err != nil {
				return err
			}
			for _, v := range available {
				if v > status.Version {
					cmd.Printf("pending: %06d\n", v)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

// withDB opens the relational database without applying the schema policy.
func withDB(cmd *cobra.Command, fn func(*gorm.DB, *config.Config) error) error {
	cfg := configFrom(cmd)
	if cfg.DBDriver == config.DriverMemory {
		return fmt.Errorf("DB_DRIVER=%s has no schema", config.DriverMemory)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(db, cfg)
}
