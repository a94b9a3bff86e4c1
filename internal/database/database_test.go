package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tana.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var count int
	err = db.Conn().QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrateDown(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "tana.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.MigrateDown())

	_, err = db.Conn().Exec(`SELECT 1 FROM history`)
	assert.Error(t, err)

	require.NoError(t, db.Migrate())
	_, err = db.Conn().Exec(`SELECT 1 FROM history`)
	assert.NoError(t, err)
}
