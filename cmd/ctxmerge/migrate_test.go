package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/ctxmerge/repository/memory_repository"
)

func execRoot(args ...string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func writeJSONConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMigrateCommandSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "memory.db")
	cfg := writeJSONConfig(t, `{"storage": {"memory": {"backend": "sqlite"}, "sqlite": {"path": "`+filepath.ToSlash(dbPath)+`"}}}`)

	require.NoError(t, execRoot("migrate", "-c", cfg))
	_, err := os.Stat(dbPath)
	require.NoError(t, err)
	require.NoError(t, execRoot("migrate", "-c", cfg, "--direction", "down", "--steps", "1"))
	require.NoError(t, execRoot("migrate", "-c", cfg, "--direction", "up"))

	err = execRoot("migrate", "-c", cfg, "--direction", "sideways")
	assert.ErrorContains(t, err, "--direction must be up or down")
}

func TestMigrateCommandFileBackend(t *testing.T) {
	cfg := writeJSONConfig(t, `{"storage": {"memory": {"backend": "file"}}}`)
	err := execRoot("migrate", "-c", cfg)
	require.ErrorIs(t, err, memory_repository.ErrNoMigrations)
}
