package storage_test

import (
	"testing"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/storage"
	"github.com/bzplugins/airshot/internal/storage/influx"
	"github.com/bzplugins/airshot/internal/storage/memory"
	"github.com/bzplugins/airshot/internal/storage/postgres"
	sqlitestorage "github.com/bzplugins/airshot/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = (*memory.Backend)(nil)
	_ storage.Exporter = (*memory.Backend)(nil)
	_ storage.Backend  = (*sqlitestorage.Backend)(nil)
	_ storage.Backend  = (*postgres.Backend)(nil)
	_ storage.Backend  = (*influx.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		typ  string
		want storage.Backend
	}{
		{"", &memory.Backend{}},
		{"memory", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
		{"influx", &influx.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := storage.NewBackend(config.StorageConfig{Type: tt.typ}, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "mongo"}, zerolog.Nop())
	assert.EqualError(t, err, "unknown storage type: mongo")
}
