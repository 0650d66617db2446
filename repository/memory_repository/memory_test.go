package memory_repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreReadsOriginalLayout(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	seed := []Entry{
		{Timestamp: "2024-01-02T10:00:00Z", Content: "Prefers informal tone."},
		{Timestamp: "2024-02-02T10:00:00Z", Content: "  "},
		{Timestamp: "2024-03-02T10:00:00Z", Content: "Main product: grain-free dog food."},
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.json"), data, 0o600))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := s.Read(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Prefers informal tone.\n\nMain product: grain-free dog food.", got)
}

func TestFileStoreUnknownAndAppend(t *testing.T) {
	t.Parallel()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	got, err := s.Read(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(ctx, "c1", "first"))
	require.NoError(t, s.Append(ctx, "c1", "second"))
	got, err = s.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond", got)

	_, err = s.Read(ctx, " ")
	require.ErrorIs(t, err, ErrEmptyID)
	_, err = s.Read(ctx, "../etc")
	require.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "memory.db")
	s, err := NewSQLStore(ctx, DialectSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(ctx, "c1", "likes short intros"))
	require.NoError(t, s.Append(ctx, "c2", "other customer"))
	require.NoError(t, s.Append(ctx, "c1", "avoid jargon"))

	got, err = s.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "likes short intros\n\navoid jargon", got)
}

func sqliteHasTable(t *testing.T, dsn, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
	return n == 1
}

func TestSQLiteMigrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "memory.db")
	cfg := Config{Backend: "sqlite", SQLite: SQLConfig{DSN: dsn}}

	require.NoError(t, MigrateStore(cfg, "up", 0))
	assert.True(t, sqliteHasTable(t, dsn, "customer_memory"))
	assert.True(t, sqliteHasTable(t, dsn, "schema_migrations"))
	require.NoError(t, MigrateStore(cfg, "up", 0))

	require.NoError(t, MigrateStore(cfg, "down", 1))
	assert.False(t, sqliteHasTable(t, dsn, "customer_memory"))
	require.NoError(t, MigrateStore(cfg, "down", 0))

	s, err := NewSQLStore(ctx, DialectSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Append(ctx, "c1", "after remigration"))
	got, err := s.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "after remigration", got)
}

func TestMigrateStoreRejectsNonSQLBackends(t *testing.T) {
	t.Parallel()
	for _, backend := range []string{"file", "redis"} {
		err := MigrateStore(Config{Backend: backend}, "up", 0)
		require.ErrorIs(t, err, ErrNoMigrations, backend)
	}
	require.ErrorIs(t, MigrateStore(Config{Backend: "mongo"}, "up", 0), ErrUnsupportedBackend)

	dsn := "file:" + filepath.Join(t.TempDir(), "memory.db")
	err := MigrateStore(Config{Backend: "sqlite", SQLite: SQLConfig{DSN: dsn}}, "sideways", 0)
	require.ErrorContains(t, err, "unknown direction")
}

func TestNewStoreBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewStore(ctx, Config{Backend: "file", FileDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = NewStore(ctx, Config{Backend: "mongo"})
	require.ErrorIs(t, err, ErrUnsupportedBackend)

	_, err = NewStore(ctx, Config{Backend: "postgres"})
	require.Error(t, err)
}
