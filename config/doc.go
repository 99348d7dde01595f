// Package config provides configuration loading and validation for filesmanager.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILESMANAGER_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILESMANAGER_ prefix:
//   - server.port → FILESMANAGER_SERVER_PORT
//   - storage.bucket → FILESMANAGER_STORAGE_BUCKET
//   - storage.url_ttl → FILESMANAGER_STORAGE_URL_TTL
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (coloured text logs) or prod (JSON logs)
//   - Server: port, max_upload_size, staging_dir and metrics
//   - Database: type (sqlite/postgres), DSN, and table names
//   - Storage: backend type (s3/filesystem) and its settings, url_ttl
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Storage type must be s3 or filesystem; s3 requires bucket and region
//   - url_ttl must be between 1s and 7 days
//   - Log level must be debug, info, warn, or error
package config
