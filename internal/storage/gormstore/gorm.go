// Package gormstorage implements storage.Backend on top of a gorm connection.
// The SQLite and Postgres backends wrap it and only differ in how the
// connection is made and released.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bzplugins/airshot/internal/database"
	"github.com/bzplugins/airshot/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrNotReady is returned when recording before Init.
var ErrNotReady = errors.New("database not initialized")

// Backend writes ledger rows through gorm.
type Backend struct {
	db        *gorm.DB
	log       zerolog.Logger
	sessionID uint
	mu        sync.Mutex
}

// New creates a backend over db. db may be nil until SetDB is called.
func New(db *gorm.DB, log zerolog.Logger) *Backend {
	return &Backend{db: db, log: log}
}

// SetDB replaces the connection.
func (b *Backend) SetDB(db *gorm.DB) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.db = db
}

// DB returns the connection.
func (b *Backend) DB() *gorm.DB {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	db := b.DB()
	if db == nil {
		return ErrNotReady
	}
	return database.Setup(db, b.log)
}

// Close releases the connection.
func (b *Backend) Close() error {
	db := b.DB()
	if db == nil {
		return nil
	}
	return database.Close(db)
}

// StartSession inserts s; later rows reference it.
func (b *Backend) StartSession(s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotReady
	}
	if err := b.db.Create(s).Error; err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	b.sessionID = s.ID
	b.log.Debug().Uint("session", s.ID).Str("name", s.Name).Msg("Session started")
	return nil
}

// RecordServerShot inserts a server shot.
func (b *Backend) RecordServerShot(s *model.ServerShot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotReady
	}
	if s.SessionID == 0 {
		s.SessionID = b.sessionID
	}
	if err := b.db.Omit("Session").Create(s).Error; err != nil {
		return fmt.Errorf("recording server shot %d: %w", s.GUID, err)
	}
	return nil
}

// RecordKill inserts a kill credit.
func (b *Backend) RecordKill(k *model.KillCredit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotReady
	}
	if k.SessionID == 0 {
		k.SessionID = b.sessionID
	}
	if err := b.db.Omit("Session").Create(k).Error; err != nil {
		return fmt.Errorf("recording kill of %d: %w", k.VictimID, err)
	}
	return nil
}
