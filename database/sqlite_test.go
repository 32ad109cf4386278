package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeCreatesCollectionsAndHistory(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "cmms.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"activos", "tareas_correctivas", "planes_preventivos", "inventario", "historial"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "cmms.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count))

	migrations, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestLoadMigrationsSortedByVersion(t *testing.T) {
	migrations, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
}
