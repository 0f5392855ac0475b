// Package sqlstore implements the repositories on database/sql. The same
// queries run on SQLite and PostgreSQL; goqu renders them per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	"github.com/rpggio/careplan/internal/retry"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a database connection and the query builder for its dialect.
type DB struct {
	*sql.DB
	driver string
	q      *goqu.Database
}

// Options configures Open.
type Options struct {
	Driver string
	DSN    string
	Retry  retry.Config
	Logger *slog.Logger
}

// New opens a SQLite database. It is the shorthand used by tests and the
// default single-node deployment.
func New(dataSourceName string) (*DB, error) {
	return Open(context.Background(), Options{Driver: DriverSQLite, DSN: dataSourceName})
}

// Open connects to the configured database. PostgreSQL connections are
// pinged with backoff so the server can start before the database.
func Open(ctx context.Context, opts Options) (*DB, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return openSQLite(opts.DSN)
	case DriverPostgres:
		return openPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func openSQLite(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{DB: db, driver: DriverSQLite, q: goqu.New("sqlite3", db)}, nil
}

func openPostgres(ctx context.Context, opts Options) (*DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	cfg := opts.Retry
	if cfg.MaxAttempts == 0 {
		cfg = retry.DefaultConfig()
	}
	err = retry.Do(ctx, cfg, "postgres", opts.Logger, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &DB{DB: db, driver: DriverPostgres, q: goqu.New("postgres", db)}, nil
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// RunMigrations creates the schema for the database's dialect. The
// statements are idempotent.
func (db *DB) RunMigrations() error {
	schema, err := migrations.ReadFile("migrations/" + db.driver + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// exec runs an insert, update or delete built with Prepared(true).
func (db *DB) exec(ctx context.Context, builder sqlBuilder) (sql.Result, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return db.ExecContext(ctx, query, args...)
}

func (db *DB) query(ctx context.Context, ds *goqu.SelectDataset) (*sql.Rows, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return db.QueryContext(ctx, query, args...)
}

func (db *DB) queryRow(ctx context.Context, ds *goqu.SelectDataset) (*sql.Row, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return db.QueryRowContext(ctx, query, args...), nil
}

// page applies LIMIT and OFFSET. An offset without a limit is ignored
// because SQLite cannot express it.
func page(ds *goqu.SelectDataset, limit, offset int) *goqu.SelectDataset {
	if limit <= 0 {
		return ds
	}
	ds = ds.Limit(uint(limit))
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}
	return ds
}
