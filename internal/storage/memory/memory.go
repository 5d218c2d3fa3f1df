// Package memory keeps the session ledger in memory and exports it as JSON
// when the backend is closed.
package memory

import (
	"sync"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/model"
)

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *model.Session

	shots []model.ServerShot
	kills []model.KillCredit

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the current session, if any
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	return b.exportJSON()
}

// StartSession begins recording a new session and discards the previous one
func (b *Backend) StartSession(s *model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	b.session = s
	b.shots = nil
	b.kills = nil
	return nil
}

// RecordServerShot appends a server shot
func (b *Backend) RecordServerShot(s *model.ServerShot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.ID = uint(len(b.shots) + 1)
	if b.session != nil {
		s.SessionID = b.session.ID
	}
	b.shots = append(b.shots, *s)
	return nil
}

// RecordKill appends a kill
func (b *Backend) RecordKill(k *model.KillCredit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k.ID = uint(len(b.kills) + 1)
	if b.session != nil {
		k.SessionID = b.session.ID
	}
	b.kills = append(b.kills, *k)
	return nil
}

// ServerShots returns a copy of the recorded server shots
func (b *Backend) ServerShots() []model.ServerShot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.ServerShot(nil), b.shots...)
}

// Kills returns a copy of the recorded kills
func (b *Backend) Kills() []model.KillCredit {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.KillCredit(nil), b.kills...)
}

// ExportedFilePath returns the path of the last export
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
