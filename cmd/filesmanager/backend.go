package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/config"
	"github.com/lista5/filesmanager/database"
	"github.com/lista5/filesmanager/filesystem"
	"github.com/lista5/filesmanager/s3store"
)

// openDatabase connects to the metadata database, applies migrations and
// checks the schema.
func openDatabase(ctx context.Context, cfg *config.Config) (database.Database, error) {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Files)
	return db, nil
}

// objectStore is the configured object store plus what serve needs to
// expose it.
type objectStore struct {
	filesmanager.ObjectStore
	// objects serves signed object URLs; nil for s3.
	objects http.Handler
	close   func()
}

// openObjectStore builds the object store selected by storage.type.
func openObjectStore(ctx context.Context, cfg *config.Config) (*objectStore, error) {
	switch cfg.Storage.Type {
	case "s3":
		store, err := s3store.New(ctx, cfg.Storage.S3())
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		slog.Info("using s3 object store", "bucket", store.Bucket(), "region", cfg.Storage.Region, "endpoint", cfg.Storage.Endpoint)
		return &objectStore{ObjectStore: store, close: func() {}}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open storage root: %w", err)
		}

		publicURL := cfg.Storage.PublicURL
		if publicURL == "" {
			publicURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		}

		store, err := filesystem.NewStore(root, filesystem.Config{
			PublicURL:  publicURL,
			SigningKey: signingKey(cfg.Storage.SigningKey),
		})
		if err != nil {
			_ = root.Close()
			return nil, fmt.Errorf("open filesystem store: %w", err)
		}

		slog.Info("using filesystem object store", "path", cfg.Storage.Path, "public_url", publicURL)
		return &objectStore{
			ObjectStore: store,
			objects:     store.ObjectHandler(),
			close:       func() { _ = root.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// signingKey returns the configured key, or a random one. Random keys do not
// survive a restart, so URLs signed before it stop verifying.
func signingKey(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}

	slog.Warn("storage.signing_key is not set, generating a random key; signed URLs will not survive a restart")
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return key
}
