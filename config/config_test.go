package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lista5/filesmanager/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(0), cfg.Server.MaxUploadSize)
	assert.True(t, cfg.Server.Metrics)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "filesmanager.db", cfg.Database.DSN)
	assert.Equal(t, "files", cfg.Database.Tables.Files)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "lista5filesmanager", cfg.Storage.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, time.Hour, cfg.Storage.URLTTL)
	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
env: prod
server:
  port: 8080
  max_upload_size: 1048576
  staging_dir: /tmp/staging
database:
  type: postgres
  dsn: postgres://localhost/test
  tables:
    files: uploads
storage:
  type: s3
  bucket: my-bucket
  region: eu-west-1
  endpoint: http://localhost:9000
  access_key: minio
  secret_key: minio123
  use_path_style: true
  url_ttl: 15m
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadSize)
	assert.Equal(t, "/tmp/staging", cfg.Server.StagingDir)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.Equal(t, "uploads", cfg.Database.Tables.Files)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	s3cfg := cfg.Storage.S3()
	assert.Equal(t, "my-bucket", s3cfg.Bucket)
	assert.Equal(t, "eu-west-1", s3cfg.Region)
	assert.Equal(t, "http://localhost:9000", s3cfg.Endpoint)
	assert.Equal(t, "minio", s3cfg.AccessKey)
	assert.Equal(t, "minio123", s3cfg.SecretKey)
	assert.True(t, s3cfg.UsePathStyle)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
server:
  port: 5000
storage:
  type: filesystem
  path: ./objects
  public_url: http://localhost:5000
log:
  level: info
`)
	override := writeConfig(t, "override.yaml", `
server:
  port: 9000
log:
  level: warn
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)

	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./objects", cfg.Storage.Path)
	assert.Equal(t, "http://localhost:5000", cfg.Storage.PublicURL)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "port out of range", content: "server:\n  port: 99999\n"},
		{name: "unknown database", content: "database:\n  type: mysql\n"},
		{name: "unknown storage", content: "storage:\n  type: gcs\n"},
		{name: "unknown env", content: "env: staging\n"},
		{name: "bad log level", content: "log:\n  level: trace\n"},
		{name: "s3 without bucket", content: "storage:\n  type: s3\n  bucket: \"\"\n"},
		{name: "ttl above seven days", content: "storage:\n  url_ttl: 200h\n"},
		{name: "bad table name", content: "database:\n  tables:\n    files: \"Files;\"\n"},
		{name: "bad endpoint", content: "storage:\n  endpoint: not a url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{path}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_WithCORS(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - GET
    - PUT
  allowed_headers:
    - Content-Type
  max_age: 600
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "PUT"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Content-Type"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FILESMANAGER_SERVER_PORT", "9090")
	t.Setenv("FILESMANAGER_DATABASE_TYPE", "postgres")
	t.Setenv("FILESMANAGER_STORAGE_BUCKET", "env-bucket")
	t.Setenv("FILESMANAGER_STORAGE_URL_TTL", "30m")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, 30*time.Minute, cfg.Storage.URLTTL)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("FILESMANAGER_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db-type", "", "")
	flags.String("bucket", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--bucket", "flag-bucket"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "flag-bucket", cfg.Storage.Bucket)
	// unset flags do not override defaults
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestFromContext(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{Env: "dev"}
	got, err := config.FromContext(config.WithContext(context.Background(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
