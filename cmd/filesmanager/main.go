package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lista5/filesmanager/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filesmanager",
	Short:   "File manager API backed by an S3 bucket",
	Long: `filesmanager serves a small REST API for uploading, renaming, deleting,
listing and downloading files kept in a single object store bucket. A local
metadata index is reconciled with the bucket on every listing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: FILESMANAGER_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: filesmanager.db, env: FILESMANAGER_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store: s3, filesystem (default: s3, env: FILESMANAGER_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem store directory (default: ./data, env: FILESMANAGER_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket name (env: FILESMANAGER_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "S3 region (env: FILESMANAGER_STORAGE_REGION)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3-compatible endpoint URL (env: FILESMANAGER_STORAGE_ENDPOINT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FILESMANAGER_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
