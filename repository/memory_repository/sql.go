package memory_repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Dialect picks the driver, placeholder style and migration driver.
type Dialect struct {
	Driver          string
	placeholder     func(n int) string
	migrationDriver func(db *sql.DB) (database.Driver, error)
}

var (
	DialectPostgres = Dialect{Driver: "postgres", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }, migrationDriver: postgresMigrationDriver}
	DialectSQLite   = Dialect{Driver: "sqlite", placeholder: func(int) string { return "?" }, migrationDriver: sqliteMigrationDriver}
)

// SQLStore keeps entries in a customer_memory table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s memory store: empty dsn", dialect.Driver)
	}
	if err := Migrate(dialect, dsn, "up", 0); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dialect.Driver, err)
	}
	db, err := openDB(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Driver, err)
	}
	if dialect.Driver == DialectSQLite.Driver {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Driver, err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) Read(ctx context.Context, id string) (string, error) {
	id, err := checkID(id)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf(`SELECT created_at, content FROM customer_memory WHERE customer_id = %s ORDER BY id`, s.dialect.placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Timestamp, &e.Content); err != nil {
			return "", err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return joinEntries(entries), nil
}

func (s *SQLStore) Append(ctx context.Context, id, content string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO customer_memory (customer_id, content, created_at) VALUES (%s, %s, %s)`,
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3))
	_, err = s.db.ExecContext(ctx, q, id, content, now().Format(time.RFC3339))
	return err
}

func (s *SQLStore) Close() error { return s.db.Close() }
