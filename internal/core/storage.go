package core

import (
	"context"
	"fmt"
	"medportal/internal/infra/persistence/memory"
	"medportal/internal/infra/persistence/postgres"
	"medportal/internal/infra/persistence/redis"
	"medportal/internal/infra/persistence/sqlite"
	"medportal/internal/persistence"
)

// StorageDriver identifies a concrete durable medium implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // process-local only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // Redis string keys
)

// StorageConfig selects and configures a durable medium.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Redis       redis.Config
}

// Medium is a durable medium the caller must close when done.
type Medium interface {
	persistence.Medium
	Close() error
}

type nopCloser struct{ *memory.Medium }

func (nopCloser) Close() error { return nil }

// OpenMedium opens the durable medium named by cfg.Driver. An empty driver
// selects sqlite.
func OpenMedium(ctx context.Context, cfg StorageConfig) (Medium, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return nopCloser{memory.NewMedium()}, nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	case StorageRedis:
		return redis.NewStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
