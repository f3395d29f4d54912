package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/waypoint/db/types"
)

//go:embed schema.sql
var schema string

// DB wraps sql.DB with the application clock and schema management.
type DB struct {
	*sql.DB
	ctx     context.Context
	timeNow func() time.Time
	path    string
}

var _ types.Querier = (*DB)(nil)

// Open creates and configures a new SQLite database connection, and ensures
// that the schema exists.
func Open(ctx context.Context, path string, timeNow func() time.Time) (*DB, error) {
	sqliteDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening SQLite database: %w", err)
	}

	if strings.Contains(path, "mode=memory") || strings.Contains(path, ":memory:") {
		// In-memory databases vanish with their last connection.
		// See https://github.com/mattn/go-sqlite3#faq
		sqliteDB.SetMaxIdleConns(10)
		sqliteDB.SetConnMaxLifetime(time.Duration(math.Inf(1)))
	}

	d := &DB{DB: sqliteDB, ctx: ctx, path: path, timeNow: timeNow}

	if _, err = d.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
	}

	if _, err = d.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed creating database schema: %w", err)
	}

	return d, nil
}

// Init records the application version the database was created with. It's a
// no-op if the database was already initialized.
func (d *DB) Init(appVersion string, logger *slog.Logger) error {
	dblogger := logger.With("path", d.path)

	version, err := d.Version()
	if err != nil {
		return err
	}
	if version.Valid {
		dblogger.Debug("database already initialized", "version", version.V)
		return nil
	}

	_, err = d.ExecContext(d.ctx,
		`INSERT INTO _meta (version, created_at) VALUES (?, ?)`,
		appVersion, d.TimeNow().UTC())
	if err != nil {
		return fmt.Errorf("failed inserting into _meta: %w", err)
	}

	dblogger.Info("database initialized", "version", appVersion)

	return nil
}

// Version returns the application version the database was initialized with.
// An invalid value means the database hasn't been initialized.
func (d *DB) Version() (sql.Null[string], error) {
	var version sql.Null[string]
	err := d.QueryRowContext(d.ctx, `SELECT version FROM _meta`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return version, fmt.Errorf("failed reading database version: %w", err)
	}

	return version, nil
}

// NewContext returns the main database context.
func (d *DB) NewContext() context.Context {
	return d.ctx
}

// TimeNow returns the current time according to the application clock.
func (d *DB) TimeNow() time.Time {
	return d.timeNow()
}
