package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported backends for the record store and the asset store.
const (
	RecordStorePostgres = "postgres"
	RecordStoreMemory   = "memory"

	AssetStoreMinIO      = "minio"
	AssetStoreCloudinary = "cloudinary"
	AssetStoreMemory     = "memory"
)

// DatabaseConfig holds PostgreSQL database connection settings (DB_*).
// Nested groups use split_words so keys never fall back to unprefixed
// variables such as USER or HOST.
type DatabaseConfig struct {
	Host               string `split_words:"true"`
	Port               string `split_words:"true" default:"5432"`
	User               string `split_words:"true"`
	Password           string `split_words:"true"`
	Name               string `split_words:"true"`
	SSLMode            string `split_words:"true" default:"disable"`
	MaxOpenConns       int    `split_words:"true" default:"10"`
	MaxIdleConns       int    `split_words:"true" default:"5"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"300"`
	AutoMigrate        bool   `split_words:"true" default:"true"`
}

// MinIOConfig holds object storage settings for MinIO or any S3-compatible host (MINIO_*).
type MinIOConfig struct {
	Endpoint  string `split_words:"true"`
	AccessKey string `split_words:"true"`
	SecretKey string `split_words:"true"`
	Bucket    string `split_words:"true"`
	UseSSL    bool   `split_words:"true" default:"false"`
	Region    string `split_words:"true" default:"us-east-1"`
	// PublicBaseURL is the prefix used to build client-facing cover URLs.
	// Defaults to the endpoint when empty.
	PublicBaseURL string `split_words:"true"`
}

// CloudinaryConfig holds credentials for the Cloudinary media host (CLOUDINARY_*).
type CloudinaryConfig struct {
	CloudName string `split_words:"true"`
	APIKey    string `split_words:"true"`
	APISecret string `split_words:"true"`
	Folder    string `split_words:"true" default:"book-covers"`
}

// RedisConfig holds the connection used by the orphaned asset journal (REDIS_*).
// The journal is disabled when Addr is empty.
type RedisConfig struct {
	Addr      string `split_words:"true"`
	Username  string `split_words:"true"`
	Password  string `split_words:"true"`
	DB        int    `split_words:"true" default:"0"`
	OrphanKey string `split_words:"true" default:"bookapi:orphaned-assets"`
}

// TracingConfig reads the standard OTEL_* variables used to set up tracing.
type TracingConfig struct {
	Disabled    bool   `envconfig:"OTEL_SDK_DISABLED" default:"false"`
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"bookapi"`
	Protocol    string `envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc"`
	Endpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Sampler     string `envconfig:"OTEL_TRACES_SAMPLER" default:"parentbased_traceidratio"`
	SamplerArg  string `envconfig:"OTEL_TRACES_SAMPLER_ARG" default:"1.0"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Env             string        `envconfig:"APP_ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	RecordStore     string        `envconfig:"RECORD_STORE" default:"postgres"`
	AssetStore      string        `envconfig:"ASSET_STORE" default:"minio"`
	MaxImageBytes   int64         `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`
	CORSOrigins     string        `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	CleanupTimeout  time.Duration `envconfig:"CLEANUP_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Database   DatabaseConfig   `envconfig:"DB"`
	MinIO      MinIOConfig      `envconfig:"MINIO"`
	Cloudinary CloudinaryConfig `envconfig:"CLOUDINARY"`
	Redis      RedisConfig      `envconfig:"REDIS"`

	TracingConfig
}

// IsProduction reports whether the process runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the file.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend selectors and that the selected backends are configured.
func (c *AppConfig) Validate() error {
	switch c.RecordStore {
	case RecordStorePostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("invalid config: DB_HOST, DB_USER and DB_NAME are required for the %s record store", c.RecordStore)
		}
	case RecordStoreMemory:
	default:
		return fmt.Errorf("invalid config: unknown RECORD_STORE %q", c.RecordStore)
	}

	switch c.AssetStore {
	case AssetStoreMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("invalid config: MINIO_ENDPOINT and MINIO_BUCKET are required for the %s asset store", c.AssetStore)
		}
	case AssetStoreCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return fmt.Errorf("invalid config: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case AssetStoreMemory:
	default:
		return fmt.Errorf("invalid config: unknown ASSET_STORE %q", c.AssetStore)
	}

	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("invalid config: MAX_IMAGE_BYTES must be positive")
	}
	return nil
}
