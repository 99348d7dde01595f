package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/database"
	fmhttp "github.com/lista5/filesmanager/http"
	"github.com/lista5/filesmanager/s3store"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filesmanager.
type Config struct {
	Env      string            `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server   ServerConfig      `mapstructure:"server"`
	Database database.Config   `mapstructure:"database"`
	Storage  StorageConfig     `mapstructure:"storage"`
	CORS     fmhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig         `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" validate:"min=0"`
	StagingDir    string `mapstructure:"staging_dir"`
	Metrics       bool   `mapstructure:"metrics"`
}

// StorageConfig selects and configures the object store.
//
// The s3 backend uses Bucket, Region, Endpoint, AccessKey, SecretKey and
// UsePathStyle. The filesystem backend uses Path, SigningKey and PublicURL.
type StorageConfig struct {
	Type         string        `mapstructure:"type" validate:"required,oneof=s3 filesystem"`
	Bucket       string        `mapstructure:"bucket" validate:"required_if=Type s3"`
	Region       string        `mapstructure:"region" validate:"required_if=Type s3"`
	Endpoint     string        `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UsePathStyle bool          `mapstructure:"use_path_style"`
	URLTTL       time.Duration `mapstructure:"url_ttl" validate:"min=1s,max=168h"`

	Path       string `mapstructure:"path" validate:"required_if=Type filesystem"`
	SigningKey string `mapstructure:"signing_key"`
	PublicURL  string `mapstructure:"public_url" validate:"omitempty,url"`
}

// S3 returns the settings for the s3 backend.
func (c StorageConfig) S3() s3store.Config {
	return s3store.Config{
		Bucket:       c.Bucket,
		Region:       c.Region,
		Endpoint:     c.Endpoint,
		AccessKey:    c.AccessKey,
		SecretKey:    c.SecretKey,
		UsePathStyle: c.UsePathStyle,
	}
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-type": "storage.type",
	"storage-path": "storage.path",
	"bucket":       "storage.bucket",
	"region":       "storage.region",
	"endpoint":     "storage.endpoint",
	"port":         "server.port",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key is registered so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.staging_dir", "")
	v.SetDefault("server.metrics", true)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "filesmanager.db")
	v.SetDefault("database.tables.files", "files")

	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.bucket", s3store.DefaultBucket)
	v.SetDefault("storage.region", s3store.DefaultRegion)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.url_ttl", filesmanager.DefaultURLTTL)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.signing_key", "")
	v.SetDefault("storage.public_url", "")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("FILESMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
