package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/config"
	fmhttp "github.com/lista5/filesmanager/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the filesmanager HTTP server.

The bucket is created if it does not exist before the server starts
listening. The metadata table is migrated and validated on start.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port (env: FILESMANAGER_SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

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

	if err = store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	service, err := filesmanager.NewFileService(db.GetRepo(), store, filesmanager.ServiceConfig{
		URLTTL:     cfg.Storage.URLTTL,
		StagingDir: cfg.Server.StagingDir,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	handler := fmhttp.NewHandler(&fmhttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Objects:       store.objects,
		Metrics:       cfg.Server.Metrics,
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "url_ttl", cfg.Storage.URLTTL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
