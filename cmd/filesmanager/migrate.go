package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lista5/filesmanager/config"
	"github.com/lista5/filesmanager/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the metadata table and validate its schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "table %q is ready (%s)\n", cfg.Database.Tables.Files, cfg.Database.Type)
	return err
}
