package memory_repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNoMigrations is returned for backends that keep no SQL schema.
var ErrNoMigrations = errors.New("backend has no migrations")

// Migrate applies the customer_memory migrations for dialect to the database
// at dsn. steps limits how many versions move; 0 means all. A database that is
// already at the target version is not an error.
func Migrate(dialect Dialect, dsn, direction string, steps int) error {
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("%s migrate: empty dsn", dialect.Driver)
	}
	src, err := iofs.New(migrationsFS, "migrations/"+dialect.Driver)
	if err != nil {
		return fmt.Errorf("%s migrations: %w", dialect.Driver, err)
	}
	db, err := openDB(dialect.Driver, dsn)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("open %s: %w", dialect.Driver, err)
	}
	drv, err := dialect.migrationDriver(db)
	if err != nil {
		_ = src.Close()
		_ = db.Close()
		return fmt.Errorf("%s migrate driver: %w", dialect.Driver, err)
	}
	// Closing m closes db as well.
	m, err := migrate.NewWithInstance("iofs", src, dialect.Driver, drv)
	if err != nil {
		_ = src.Close()
		_ = drv.Close()
		return err
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up", "":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// MigrateStore runs Migrate for the SQL backend cfg selects.
func MigrateStore(cfg Config, direction string, steps int) error {
	switch Backend(strings.ToLower(strings.TrimSpace(cfg.Backend))) {
	case BackendPostgres:
		return Migrate(DialectPostgres, cfg.Postgres.DSN, direction, steps)
	case BackendSQLite:
		return Migrate(DialectSQLite, cfg.SQLite.DSN, direction, steps)
	case BackendFile, BackendRedis, "":
		return fmt.Errorf("%w: %s", ErrNoMigrations, cfg.Backend)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Backend)
	}
}

func postgresMigrationDriver(db *sql.DB) (database.Driver, error) {
	return migratepg.WithInstance(db, &migratepg.Config{})
}

func sqliteMigrationDriver(db *sql.DB) (database.Driver, error) {
	return migratesqlite.WithInstance(db, &migratesqlite.Config{})
}
