package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// DB is a connection pool bound to one of the supported dialects.
type DB struct {
	*sql.DB
	dialect dialect
}

// NewDB opens a connection pool for the given driver and DSN and verifies it
// answers within timeout.
func NewDB(ctx context.Context, driver, dsn string, timeout time.Duration) (*DB, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: d}
	if err := db.configure(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func (db *DB) configure(ctx context.Context) error {
	switch db.dialect.name {
	case DriverSQLite:
		// A single connection keeps the pragmas below in effect and
		// serializes writers.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return nil
}

// Driver returns the DB_DRIVER name the pool was opened with.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Migrate applies all pending migrations for the pool's dialect.
func (db *DB) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations/"+db.dialect.name)
	if err != nil {
		return fmt.Errorf("locate migrations: %w", err)
	}

	provider, err := goose.NewProvider(db.dialect.gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		slog.Info("migration applied", "source", r.Source.Path, "duration", r.Duration)
	}

	return nil
}

func (db *DB) rebind(query string) string {
	return db.dialect.rebind(query)
}
