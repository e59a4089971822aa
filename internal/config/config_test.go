package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("RECORD_STORE", "postgres")
	t.Setenv("ASSET_STORE", "minio")
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_USER", "books")
	t.Setenv("DB_NAME", "catalog")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_BUCKET", "covers")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CLEANUP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 3*time.Second, cfg.CleanupTimeout)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
	assert.Equal(t, "book-covers", cfg.Cloudinary.Folder)
	assert.Equal(t, "bookapi:orphaned-assets", cfg.Redis.OrphanKey)
	assert.Equal(t, "bookapi", cfg.ServiceName)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MemoryBackends(t *testing.T) {
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("ASSET_STORE", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTEL_SDK_DISABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RecordStoreMemory, cfg.RecordStore)
	assert.Equal(t, AssetStoreMemory, cfg.AssetStore)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.TracingConfig.Disabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("RECORD_STORE", "memory")
	t.Setenv("ASSET_STORE", "memory")
	t.Setenv("CLEANUP_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			RecordStore:   RecordStorePostgres,
			AssetStore:    AssetStoreCloudinary,
			MaxImageBytes: 1024,
			Database:      DatabaseConfig{Host: "db", User: "u", Name: "n"},
			Cloudinary:    CloudinaryConfig{CloudName: "c", APIKey: "k", APISecret: "s"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *AppConfig) {}},
		{
			name:    "unknown record store",
			mutate:  func(c *AppConfig) { c.RecordStore = "mongo" },
			wantErr: "unknown RECORD_STORE",
		},
		{
			name:    "unknown asset store",
			mutate:  func(c *AppConfig) { c.AssetStore = "ftp" },
			wantErr: "unknown ASSET_STORE",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *AppConfig) { c.Database.Host = "" },
			wantErr: "DB_HOST",
		},
		{
			name:    "cloudinary without secret",
			mutate:  func(c *AppConfig) { c.Cloudinary.APISecret = "" },
			wantErr: "CLOUDINARY_API_SECRET",
		},
		{
			name: "minio without bucket",
			mutate: func(c *AppConfig) {
				c.AssetStore = AssetStoreMinIO
				c.MinIO.Endpoint = "localhost:9000"
			},
			wantErr: "MINIO_BUCKET",
		},
		{
			name:    "non positive image limit",
			mutate:  func(c *AppConfig) { c.MaxImageBytes = 0 },
			wantErr: "MAX_IMAGE_BYTES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_NestedKeysRequirePrefix(t *testing.T) {
	t.Setenv("RECORD_STORE", "postgres")
	t.Setenv("ASSET_STORE", "memory")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "catalog")
	t.Setenv("DB_USER", "")
	t.Setenv("USER", "root")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
}
