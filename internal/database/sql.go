package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// SqlCourierRepository implements CourierRepository on top of PostgreSQL or
// SQLite. Queries are written with '?' placeholders and rebound per driver.
type SqlCourierRepository struct {
	conn *sqlx.DB
}

func NewSqlCourierRepository(ctx context.Context, driverName, dsn string) (*SqlCourierRepository, error) {
	if driverName != DriverPostgres && driverName != DriverSqlite {
		return nil, fmt.Errorf("unsupported sql driver %q", driverName)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	if driverName == DriverSqlite {
		// a single connection serializes writers and keeps ":memory:" databases
		// shared across queries
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	if err := migrateUp(ctx, db.DB, driverName); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SqlCourierRepository{conn: db}, nil
}

func migrateUp(ctx context.Context, db *sql.DB, driverName string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var driver migratedb.Driver
	switch driverName {
	case DriverPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("acquire conn: %w", err)
		}
		defer conn.Close()

		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			return fmt.Errorf("postgres migration driver: %w", err)
		}
	case DriverSqlite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("sqlite migration driver: %w", err)
		}
	}

	// the migrate instance is not closed: closing it would close db as well
	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (db *SqlCourierRepository) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *SqlCourierRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

func (db *SqlCourierRepository) rebind(query string) string {
	return db.conn.Rebind(query)
}

// translateErr maps driver level errors onto the package sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s", ErrConflict, liteErr.Error())
	}

	return err
}
