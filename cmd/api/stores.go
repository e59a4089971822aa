package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookapi/internal/config"
	"bookapi/internal/database"
	"bookapi/internal/database/migration"
	"bookapi/internal/orphan"
	"bookapi/internal/repository"
	"bookapi/internal/repository/memory"
	"bookapi/internal/repository/postgres"
	"bookapi/internal/storage"
)

// newRecordStore opens the record store selected by RECORD_STORE.
func newRecordStore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (repository.BookRepository, func(), error) {
	switch cfg.RecordStore {
	case config.RecordStoreMemory:
		repo, err := memory.NewBookMemory()
		if err != nil {
			return nil, nil, err
		}
		log.Warn("using in-memory record store; data is lost on restart")
		return repo, func() {}, nil

	case config.RecordStorePostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := migration.Up(ctx, db, log); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
		return postgres.NewBookPostgres(db), closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
	}
}

// newAssetStore builds the asset store selected by ASSET_STORE.
func newAssetStore(cfg *config.AppConfig) (storage.AssetStore, error) {
	switch cfg.AssetStore {
	case config.AssetStoreMinIO:
		s, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("initialize object storage: %w", err)
		}
		return s, nil
	case config.AssetStoreCloudinary:
		s, err := storage.NewCloudinary(cfg.Cloudinary)
		if err != nil {
			return nil, fmt.Errorf("initialize cloudinary: %w", err)
		}
		return s, nil
	case config.AssetStoreMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown asset store %q", cfg.AssetStore)
	}
}

// newJournal connects the orphan journal when REDIS_ADDR is set.
func newJournal(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (orphan.Journal, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("orphan journal disabled")
		return orphan.Nop{}, func() {}, nil
	}
	client, err := orphan.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}
	return orphan.NewRedisJournal(client, cfg.Redis.OrphanKey), closeClient, nil
}
