package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/staffdir/internal/infrastructure/sheet"
	"github.com/aryan0dhankhar/staffdir/pkg/config"
	"github.com/aryan0dhankhar/staffdir/pkg/database"
)

// Open builds the store selected by cfg.StoreBackend. The returned close
// function releases backend connections.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		store, err := NewMemoryStoreFromFile(cfg.SeedFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.BackendFile:
		return NewFileStore(cfg.DataFile, logger), noop, nil

	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.RedisKey, logger), client.Close, nil

	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, database.ConfigFrom(cfg.Postgres), logger)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(pool.GetDB(), logger)
		if err := store.EnsureTables(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case config.BackendSheet:
		client := sheet.NewClient(cfg.SheetURL, cfg.HTTPTimeout, logger)
		return NewSheetStore(client, logger), noop, nil

	case config.BackendRemote:
		return NewRemoteStore(cfg.RemoteURL, cfg.HTTPTimeout, logger), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
