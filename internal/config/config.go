// Package config loads medportal settings from MEDPORTAL_* environment
// variables and an optional config file.
package config

import (
	"fmt"
	"medportal/internal/blob"
	"medportal/internal/core"
	"medportal/internal/infra/persistence/redis"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MEDPORTAL"

// Config is the flattened runtime configuration.
type Config struct {
	StorageDriver   string `mapstructure:"storage_driver"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	PostgresDSN     string `mapstructure:"postgres_dsn"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	RedisPrefix     string `mapstructure:"redis_prefix"`
	BlobDriver      string `mapstructure:"blob_driver"`
	BlobFSRoot      string `mapstructure:"blob_fs_root"`
	BlobS3Bucket    string `mapstructure:"blob_s3_bucket"`
	BlobS3Region    string `mapstructure:"blob_s3_region"`
	BlobS3Endpoint  string `mapstructure:"blob_s3_endpoint"`
	BlobS3PathStyle bool   `mapstructure:"blob_s3_path_style"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	SampleData      bool   `mapstructure:"sample_data"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
}

var keys = []string{
	"storage_driver", "sqlite_path", "postgres_dsn",
	"redis_addr", "redis_password", "redis_db", "redis_prefix",
	"blob_driver", "blob_fs_root", "blob_s3_bucket", "blob_s3_region", "blob_s3_endpoint", "blob_s3_path_style",
	"log_level", "log_format", "sample_data", "metrics_addr",
}

// Load reads configuration. A non-empty file is read first and must exist;
// environment variables override its values. The result is validated.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage_driver", string(core.StorageSQLite))
	v.SetDefault("sqlite_path", "medportal.db")
	v.SetDefault("redis_prefix", "medportal:")
	v.SetDefault("blob_driver", string(blob.DriverFilesystem))
	v.SetDefault("blob_fs_root", "medportal-files")
	v.SetDefault("blob_s3_region", "us-east-1")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("sample_data", true)

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects unknown drivers and missing driver settings.
func (c *Config) Validate() error {
	switch core.StorageDriver(c.StorageDriver) {
	case core.StorageMemory:
	case core.StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	case core.StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres driver")
		}
	case core.StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis driver")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("redis_db must not be negative, got %d", c.RedisDB)
		}
	default:
		return fmt.Errorf("storage_driver must be memory, sqlite, postgres or redis, got %q", c.StorageDriver)
	}

	switch blob.Driver(c.BlobDriver) {
	case blob.DriverMemory:
	case blob.DriverFilesystem:
		if c.BlobFSRoot == "" {
			return fmt.Errorf("blob_fs_root is required for the fs blob driver")
		}
	case blob.DriverS3:
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("blob_s3_bucket is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("blob_driver must be memory, fs or s3, got %q", c.BlobDriver)
	}
	return nil
}

// Storage maps the settings onto the durable medium configuration.
func (c *Config) Storage() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.StorageDriver),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		Redis: redis.Config{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
	}
}

// Blob maps the settings onto the payload backend configuration. S3
// credentials come from the default AWS chain.
func (c *Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:    c.BlobS3Bucket,
			Region:    c.BlobS3Region,
			Endpoint:  c.BlobS3Endpoint,
			PathStyle: c.BlobS3PathStyle,
		},
	}
}
