// Package storage defines the session ledger: server shots spawned on behalf
// of flag carriers and kills as they were finally scored.
package storage

import "github.com/bzplugins/airshot/internal/model"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// StartSession assigns an ID to s; later records belong to it.
	StartSession(s *model.Session) error

	RecordServerShot(s *model.ServerShot) error
	RecordKill(k *model.KillCredit) error
}

// Exporter is an optional interface for backends that write a file on Close.
type Exporter interface {
	ExportedFilePath() string
}
