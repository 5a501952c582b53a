// Package db contains the SQL queries, migrations and connection utilities
// used by the storage package. Both PostgreSQL (via pgx) and SQLite are
// supported; the dialect is derived from the connection string.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx sql.DB driver initialization
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"modernc.org/sqlite" // sqlite sql.DB driver initialization
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// Dialect identifies the SQL backend behind a connection string.
type Dialect string

// Supported dialects. The values double as goose dialect names.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

const sqlitePrefix = "sqlite://"

var registerHook sync.Once

// DialectOf determines the dialect for dsn. PostgreSQL URLs and keyword/value
// connection strings (e.g. "dbname=journal user=admin") select PostgreSQL;
// anything else is treated as a SQLite database path.
func DialectOf(dsn string) Dialect {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "dbname="),
		strings.Contains(dsn, "host="):
		return DialectPostgres
	default:
		return DialectSQLite
	}
}

// Options tune the connection pool.
type Options struct {
	// MaxOpenConns limits the PostgreSQL pool. SQLite always uses a single
	// connection.
	MaxOpenConns int
}

// Open connects to the database described by dsn and migrates it to match the
// current state expected of the system.
func Open(ctx context.Context, logger *slog.Logger, dsn string, opts Options) (*sql.DB, Dialect, error) {
	dialect := DialectOf(dsn)

	var (
		handle *sql.DB
		err    error
	)
	switch dialect {
	case DialectPostgres:
		handle, err = openPostgres(ctx, dsn, opts)
	default:
		handle, err = openSQLite(ctx, strings.TrimPrefix(dsn, sqlitePrefix))
	}
	if err != nil {
		return nil, dialect, err
	}

	if err = migrate(ctx, logger, handle, dialect); err != nil {
		return nil, dialect, errors.Join(err, handle.Close())
	}
	return handle, dialect, nil
}

func openPostgres(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	handle, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping DB: %w", err), handle.Close())
	}
	if opts.MaxOpenConns > 0 {
		handle.SetMaxOpenConns(opts.MaxOpenConns)
		handle.SetMaxIdleConns(opts.MaxOpenConns)
	}
	return handle, nil
}

func openSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath == ":memory:" { //nolint:revive // for documentation
		// noop
	} else if _, err := os.Stat(dbPath); err != nil {
		const userOnlyDirPerms = 0o700
		if err = os.MkdirAll(filepath.Dir(dbPath), userOnlyDirPerms); err != nil {
			return nil, fmt.Errorf("failed to create db parent directory: %w", err)
		}
	}

	if strings.ContainsRune(dbPath, '?') {
		dbPath += "&"
	} else {
		dbPath += "?"
	}
	dbPath += "_time_format=sqlite"

	registerHook.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			const initSQL = `
			pragma journal_mode = WAL; -- allow concurrent reads while writing
			pragma synchronous = normal; -- don't wait for fsync except on checkpointing
			pragma temp_store = memory; -- temporary indices
			`
			_, err := conn.ExecContext(context.Background(), initSQL, nil)
			return err
		})
	})

	handle, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping DB: %w", err), handle.Close())
	}
	// a single connection keeps :memory: databases shared and serializes writers
	handle.SetMaxOpenConns(1)
	return handle, nil
}

func migrate(ctx context.Context, logger *slog.Logger, handle *sql.DB, dialect Dialect) error {
	fsys, err := fs.Sub(migrations, migrationsDir(dialect))
	if err != nil {
		return fmt.Errorf("failed to locate migrations: %w", err)
	}
	provider, err := goose.NewProvider(database.Dialect(dialect), handle, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate DB: %w", err)
	}
	for _, res := range results {
		logger.DebugContext(ctx, "applied migration",
			slog.String("dialect", string(dialect)),
			slog.String("source", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}
	return nil
}

func migrationsDir(dialect Dialect) string {
	if dialect == DialectPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}
