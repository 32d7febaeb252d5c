package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Blob backend names
const (
	BlobBackendMemory     = "memory"
	BlobBackendFilesystem = "filesystem"
	BlobBackendS3         = "s3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	CORSOrigins string `yaml:"cors_origins"`
	TablePrefix string `yaml:"table_prefix"`

	// Logging
	LogDir      string `yaml:"log_dir"` // empty = stdout only
	LogMaxFiles int    `yaml:"log_max_files"`

	// Blob storage
	Blob BlobConfig `yaml:"blob"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Debug flags
	Debug bool `yaml:"debug"`
}

// BlobConfig selects and configures the blob store backend
type BlobConfig struct {
	Backend string `yaml:"backend"` // "memory", "filesystem" or "s3"
	Dir     string `yaml:"dir"`     // filesystem root

	// S3-specific fields (only used when Backend == "s3")
	S3Bucket    string `yaml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"` // MinIO or other S3-compatible endpoint
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`

	// Retries for transient blob I/O failures
	RetryAttempts uint64        `yaml:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// Load builds the configuration from an optional YAML file (CONFIG_FILE)
// overlaid by environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	env := getEnv("ENVIRONMENT", orDefault(cfg.Environment, "dev"))
	cfg.Environment = env
	cfg.Port = getEnv("PORT", orDefault(cfg.Port, "8080"))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", orDefault(cfg.CORSOrigins, "http://localhost:3000"))
	cfg.TablePrefix = getTablePrefix(env, cfg.TablePrefix)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LogMaxFiles = getEnvInt("LOG_MAX_FILES", orDefaultInt(cfg.LogMaxFiles, 10))
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(orDefaultInt64(cfg.MaxUploadBytes, DefaultMaxUploadBytes))))
	// Debug defaults to true in dev/test, false in production
	cfg.Debug = getEnv("DEBUG", getDefaultDebug(env, cfg.Debug)) == "true"

	b := &cfg.Blob
	b.Backend = getEnv("BLOB_BACKEND", orDefault(b.Backend, BlobBackendFilesystem))
	b.Dir = getEnv("BLOB_DIR", orDefault(b.Dir, "./var/files"))
	b.S3Bucket = getEnv("S3_BUCKET", b.S3Bucket)
	b.S3Prefix = getEnv("S3_PREFIX", b.S3Prefix)
	b.S3Region = getEnv("S3_REGION", orDefault(b.S3Region, "us-east-1"))
	b.S3Endpoint = getEnv("S3_ENDPOINT", b.S3Endpoint)
	b.S3AccessKey = getEnv("S3_ACCESS_KEY", b.S3AccessKey)
	b.S3SecretKey = getEnv("S3_SECRET_KEY", b.S3SecretKey)
	b.RetryAttempts = uint64(getEnvInt("BLOB_RETRY_ATTEMPTS", int(orDefaultUint(b.RetryAttempts, 3))))
	if b.RetryBackoff == 0 {
		b.RetryBackoff = 100 * time.Millisecond
	}
	if v := os.Getenv("BLOB_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse BLOB_RETRY_BACKOFF: %w", err)
		}
		b.RetryBackoff = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks required settings for the selected backends
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
		validation.Field(&c.MaxUploadBytes, validation.Min(int64(1))),
	); err != nil {
		return err
	}

	b := &c.Blob
	return validation.ValidateStruct(b,
		validation.Field(&b.Backend,
			validation.Required,
			validation.In(BlobBackendMemory, BlobBackendFilesystem, BlobBackendS3),
		),
		validation.Field(&b.Dir, validation.When(b.Backend == BlobBackendFilesystem, validation.Required)),
		validation.Field(&b.S3Bucket, validation.When(b.Backend == BlobBackendS3, validation.Required)),
		validation.Field(&b.S3Region, validation.When(b.Backend == BlobBackendS3, validation.Required)),
	)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string, fromFile bool) string {
	if fromFile {
		return "true"
	}
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env, fromFile string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	if fromFile != "" {
		return fromFile
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt64(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultUint(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}
