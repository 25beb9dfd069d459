package app

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_SortedUpFilesOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_indexes.up.sql": {Data: []byte("SELECT 1")},
		"migrations/001_fleet.up.sql":   {Data: []byte("SELECT 1")},
		"migrations/001_fleet.down.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md":          {Data: []byte("notes")},
	}

	names, err := migrationNames(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_fleet.up.sql", "002_indexes.up.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationNames(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	content, err := migrationFiles.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	for _, table := range []string{"vehicles", "drivers", "trips", "maintenance_logs", "fuel_logs"} {
		assert.True(t, strings.Contains(string(content), "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}
