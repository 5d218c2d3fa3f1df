package sqlitestorage

import (
	"path/filepath"
	"testing"

	"github.com/bzplugins/airshot/internal/config"
	"github.com/bzplugins/airshot/internal/database"
	"github.com/bzplugins/airshot/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_DumpsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	b := New(config.SQLiteConfig{Path: path}, zerolog.Nop())
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&model.Session{Name: "sqlite"}))
	require.NoError(t, b.RecordServerShot(&model.ServerShot{GUID: 1, Tag: "AT"}))
	require.NoError(t, b.RecordServerShot(&model.ServerShot{GUID: 2, Tag: "AT"}))
	require.NoError(t, b.RecordKill(&model.KillCredit{VictimID: 2, KillerID: 1}))
	require.NoError(t, b.Close())

	db, err := database.GetSqliteDB(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	var shots, kills int64
	require.NoError(t, db.Model(&model.ServerShot{}).Count(&shots).Error)
	require.NoError(t, db.Model(&model.KillCredit{}).Count(&kills).Error)
	assert.Equal(t, int64(2), shots)
	assert.Equal(t, int64(1), kills)
}

func TestBackend_NoPath(t *testing.T) {
	b := New(config.SQLiteConfig{}, zerolog.Nop())
	require.NoError(t, b.Init())
	require.NoError(t, b.StartSession(&model.Session{Name: "mem"}))
	assert.NoError(t, b.Close())
}
