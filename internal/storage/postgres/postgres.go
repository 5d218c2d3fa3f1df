// Package postgres implements storage.Backend against a Postgres server.
package postgres

import (
	"fmt"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/database"
	gormstorage "github.com/bzplugins/airshot/internal/storage/gormstore"

	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.PostgresConfig
	log zerolog.Logger
}

// New creates a new Postgres storage backend. It connects on Init.
func New(cfg config.PostgresConfig, log zerolog.Logger) *Backend {
	return &Backend{
		Backend: gormstorage.New(nil, log),
		cfg:     cfg,
		log:     log,
	}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.cfg, b.log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.SetDB(db)
	return b.Backend.Init()
}
