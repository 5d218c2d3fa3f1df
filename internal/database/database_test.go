package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bzplugins/airshot/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSqliteDB_MemoryAndSetup(t *testing.T) {
	db, err := GetSqliteDB("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Setup(db, zerolog.Nop()))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}

	s := model.Session{Name: "test", Plugin: "Airshot Flag", StartTime: time.Unix(0, 0).UTC()}
	require.NoError(t, db.Create(&s).Error)
	assert.NotZero(t, s.ID)
}

func TestGetSqliteDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := GetSqliteDB(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, Setup(db, zerolog.Nop()))
	require.NoError(t, Close(db))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Setup(db, zerolog.Nop()))
	s := model.Session{Name: "dump"}
	require.NoError(t, db.Create(&s).Error)
	require.NoError(t, db.Create(&model.KillCredit{SessionID: s.ID, VictimID: 2, KillerID: 1}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
	require.NoError(t, DumpMemoryDBToDisk(db, path, zerolog.Nop()))

	dumped, err := GetSqliteDB(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(dumped) })

	var n int64
	require.NoError(t, dumped.Model(&model.KillCredit{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.Error(t, DumpMemoryDBToDisk(db, "", zerolog.Nop()))
}
