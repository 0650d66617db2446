package memory_repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend names a customer-memory storage implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

var (
	ErrEmptyID            = errors.New("customer id is empty")
	ErrUnsupportedBackend = errors.New("unsupported memory backend")

	now = func() time.Time { return time.Now().UTC() }
)

// Store reads and appends free-text customer memory.
// Read returns "" for an unknown id.
type Store interface {
	Read(ctx context.Context, id string) (string, error)
	Append(ctx context.Context, id, content string) error
	Close() error
}

// Entry is one remembered note.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

type Config struct {
	Backend  string
	FileDir  string
	Redis    RedisConfig
	Postgres SQLConfig
	SQLite   SQLConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

type SQLConfig struct {
	DSN string
}

// NewStore opens the configured backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(cfg.Backend))) {
	case BackendFile, "":
		return NewFileStore(cfg.FileDir)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendPostgres:
		return NewSQLStore(ctx, DialectPostgres, cfg.Postgres.DSN)
	case BackendSQLite:
		return NewSQLStore(ctx, DialectSQLite, cfg.SQLite.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Backend)
	}
}

const entrySeparator = "\n\n"

func joinEntries(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if c := strings.TrimSpace(e.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, entrySeparator)
}

func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyID
	}
	return id, nil
}
