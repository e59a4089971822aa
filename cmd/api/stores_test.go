package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookapi/internal/config"
	"bookapi/internal/orphan"
	"bookapi/internal/repository/memory"
	"bookapi/internal/storage"
)

func TestNewRecordStore(t *testing.T) {
	ctx := context.Background()

	repo, closeRepo, err := newRecordStore(ctx, &config.AppConfig{RecordStore: config.RecordStoreMemory}, zap.NewNop())
	require.NoError(t, err)
	defer closeRepo()
	assert.IsType(t, &memory.BookMemory{}, repo)
	assert.NoError(t, repo.Ping(ctx))

	_, _, err = newRecordStore(ctx, &config.AppConfig{RecordStore: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown record store")

	_, _, err = newRecordStore(ctx, &config.AppConfig{RecordStore: config.RecordStorePostgres}, zap.NewNop())
	assert.ErrorContains(t, err, "connect to database")
}

func TestNewAssetStore(t *testing.T) {
	s, err := newAssetStore(&config.AppConfig{AssetStore: config.AssetStoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, s)

	_, err = newAssetStore(&config.AppConfig{AssetStore: config.AssetStoreCloudinary})
	assert.ErrorContains(t, err, "initialize cloudinary")

	_, err = newAssetStore(&config.AppConfig{AssetStore: config.AssetStoreMinIO})
	assert.ErrorContains(t, err, "initialize object storage")

	_, err = newAssetStore(&config.AppConfig{AssetStore: "ftp"})
	assert.ErrorContains(t, err, "unknown asset store")
}

func TestNewJournal_Disabled(t *testing.T) {
	j, closeJournal, err := newJournal(context.Background(), &config.AppConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer closeJournal()
	assert.Equal(t, orphan.Nop{}, j)
}
