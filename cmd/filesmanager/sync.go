package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/config"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the metadata index with the bucket",
	Long: `Run one reconciliation pass: list the bucket, insert records for new
objects, re-sign the URL of every surviving record and delete records whose
object is gone. This is the same pass GET /get_files runs. Useful when:
  - Setting up filesmanager against a bucket that already holds files
  - Recovering the index after database loss
  - Refreshing stored download URLs from a cron job`,
	RunE: runSync,
}

var syncJSON bool

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	service, err := filesmanager.NewFileService(db.GetRepo(), store, filesmanager.ServiceConfig{
		URLTTL:     cfg.Storage.URLTTL,
		StagingDir: cfg.Server.StagingDir,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	start := time.Now()
	report, err := service.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	slog.Info("sync complete",
		"added", report.Added,
		"updated", report.Updated,
		"removed", report.Removed,
		"duration", time.Since(start),
	)

	if syncJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "added: %d, updated: %d, removed: %d\n", report.Added, report.Updated, report.Removed)
	return err
}
