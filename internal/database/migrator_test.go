package database

import (
	"strings"
	"testing"

	"fee-backend/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The server wires the migrator over the embedded filesystem with a "."
// root; embed.FS rejects "./file" style paths, so every file must resolve
// through the cleaned join.
func TestMigratorReadsEmbeddedFilesFromDotRoot(t *testing.T) {
	m := NewMigrator(nil, migrations.FS, ".")

	files, err := m.migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])

	for _, name := range files {
		data, err := m.readMigration(name)
		require.NoError(t, err, "migration %s must be readable", name)
		assert.NotEmpty(t, data)
	}
}

func TestMigrationFilesSortedAndSQLOnly(t *testing.T) {
	m := NewMigrator(nil, migrations.FS, ".")

	files, err := m.migrationFiles()
	require.NoError(t, err)

	for i, name := range files {
		assert.True(t, strings.HasSuffix(name, ".sql"))
		if i > 0 {
			assert.Less(t, files[i-1], name)
		}
	}
}
