// Package sqlitestorage keeps the ledger in an in-memory SQLite database and
// copies it to disk with VACUUM INTO when closed.
package sqlitestorage

import (
	"fmt"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/database"
	gormstorage "github.com/bzplugins/airshot/internal/storage/gormstore"

	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg config.SQLiteConfig
	log zerolog.Logger
}

// New creates a new SQLite storage backend. The database is opened on Init.
func New(cfg config.SQLiteConfig, log zerolog.Logger) *Backend {
	return &Backend{
		Backend: gormstorage.New(nil, log),
		cfg:     cfg,
		log:     log,
	}
}

// Init opens the in-memory database and migrates it.
func (b *Backend) Init() error {
	db, err := database.GetSqliteDB("", b.log)
	if err != nil {
		return fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	b.SetDB(db)
	return b.Backend.Init()
}

// Close dumps the database to the configured path, if any, and closes it.
func (b *Backend) Close() error {
	db := b.DB()
	if db != nil && b.cfg.Path != "" {
		if err := database.DumpMemoryDBToDisk(db, b.cfg.Path, b.log); err != nil {
			b.log.Error().Err(err).Msg("Error dumping to disk")
			_ = b.Backend.Close()
			return err
		}
		b.log.Info().Str("path", b.cfg.Path).Msg("Ledger written")
	}
	return b.Backend.Close()
}
