package storage

import (
	"fmt"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/storage/influx"
	"github.com/bzplugins/airshot/internal/storage/memory"
	"github.com/bzplugins/airshot/internal/storage/postgres"
	sqlitestorage "github.com/bzplugins/airshot/internal/storage/sqlite"

	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, log), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, log), nil
	case "influx":
		return influx.New(cfg.Influx, log), nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
