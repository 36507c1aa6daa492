package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_wallets.sql", true, 1, "create_wallets"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0002_transactions.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (id STRING);",
		"0001_wallets.sql":      "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.wallets` (id STRING);",
		"README.md":             "not a migration",
	})

	migrations, err := readMigrations(zerolog.Nop(), dir, target{project: "proj", dataset: "ledger"})
	require.NoError(t, err)

	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "wallets", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.ledger.wallets` (id STRING);", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestReadMigrations_ChecksumIgnoresTarget(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_wallets.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.wallets` (id STRING);",
	})

	a, err := readMigrations(zerolog.Nop(), dir, target{project: "p1", dataset: "d1"})
	require.NoError(t, err)
	b, err := readMigrations(zerolog.Nop(), dir, target{project: "p2", dataset: "d2"})
	require.NoError(t, err)

	assert.Equal(t, a[0].Checksum, b[0].Checksum)
	assert.NotEqual(t, a[0].SQL, b[0].SQL)
	assert.Len(t, a[0].Checksum, 64)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_a.sql": "SELECT 1",
		"0001_b.sql": "SELECT 2",
	})

	_, err := readMigrations(zerolog.Nop(), dir, target{project: "p", dataset: "d"})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "duplicate migration version 0001"))
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}

	pending, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "aaa"}, {Version: 2}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)

	_, err = pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "changed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_a.sql")
}

func TestTargetTable(t *testing.T) {
	assert.Equal(t, "`proj.ledger.schema_migrations`", target{project: "proj", dataset: "ledger"}.table("schema_migrations"))
}
