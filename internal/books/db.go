package books

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

// OpenDB opens a bun database for driver and verifies it with a ping,
// retrying with linear backoff.
//
// SQLite connections are capped at one so a shared in-memory DSN such as
// "file:books?mode=memory&cache=shared" keeps a single database alive.
func OpenDB(ctx context.Context, driver, dsn string, attempts int, interval time.Duration) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "books: empty database DSN")
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "books: failed to open %s database", driver)
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		_ = sqldb.Close()
		return nil, errors.Newf(errors.CodeInvalidConfig, "books: unsupported database driver %q", driver)
	}

	attempts = max(attempts, 1)
	for i := range attempts {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, errors.Wrap(ctx.Err(), errors.CodeDatabase, "books: connection aborted")
		case <-time.After(time.Duration(i+1) * interval):
		}
	}

	_ = db.Close()
	return nil, errors.Wrap(err, errors.CodeDatabase, "books: failed to establish database connection")
}

// Migrate applies the embedded schema migrations for the dialect of db.
func Migrate(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	var (
		gooseDialect goose.Dialect
		dir          string
	)
	switch db.Dialect().Name() {
	case dialect.SQLite:
		gooseDialect, dir = goose.DialectSQLite3, "migrations/sqlite3"
	case dialect.PG:
		gooseDialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		return errors.Newf(errors.CodeInvalidConfig, "books: no migrations for dialect %s", db.Dialect().Name())
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "books: migrations not embedded")
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "books: failed to create migration provider")
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "books: failed to apply migrations")
	}

	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
