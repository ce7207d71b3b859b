// Package database opens the relational store shared by the user and task
// repositories, creates its schema and runs scoped transactions.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-todo/internal/domain"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
)

// Supported values of Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for an unknown Config.Driver.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config holds configuration for the relational store.
type Config struct {
	// Driver selects the engine ("sqlite" or "postgres")
	Driver string `env:"DRIVER" default:"sqlite"`

	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/todo.db"`

	// DSN is the PostgreSQL connection string
	DSN string `env:"DSN" default:""`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" default:"15m"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" default:"5m"`

	// PingTimeout bounds the connectivity check performed by Open
	PingTimeout time.Duration `env:"PING_TIMEOUT" default:"5s"`
}

// DB wraps *sql.DB with the dialect specifics of the configured engine.
type DB struct {
	*sql.DB

	driver    string
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

// Open connects to the configured engine and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := logging.GetLogger("infra.database").With(
		logging.Group("db", "driver", cfg.Driver),
	)

	var (
		sqlDB *sql.DB
		err   error
	)

	switch cfg.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}

		sqlDB, err = sql.Open("sqlite", sqliteDSN(cfg.DatabasePath))
	case DriverPostgres:
		sqlDB, err = sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{
		DB:        sqlDB,
		driver:    cfg.Driver,
		log:       log,
		writeLock: new(sync.Mutex),
	}

	if err := db.initialize(ctx); err != nil {
		sqlDB.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "database ready")

	return db, nil
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled connection.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (db *DB) initialize(ctx context.Context) error {
	schema := sqliteSchema
	if db.driver == DriverPostgres {
		schema = postgresSchema
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

//nolint:gochecknoglobals
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		id            INTEGER  PRIMARY KEY AUTOINCREMENT,
		username      TEXT     UNIQUE NOT NULL,
		password_hash BLOB     NOT NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS todo (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		content      TEXT     NOT NULL,
		date_created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		user_id      INTEGER  NOT NULL REFERENCES "user"(id)
	)`,
	`CREATE INDEX IF NOT EXISTS todo_user_id_idx ON todo (user_id)`,
}

//nolint:gochecknoglobals
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		id            BIGSERIAL   PRIMARY KEY,
		username      TEXT        UNIQUE NOT NULL,
		password_hash BYTEA       NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS todo (
		id           BIGSERIAL   PRIMARY KEY,
		content      TEXT        NOT NULL,
		date_created TIMESTAMPTZ NOT NULL DEFAULT now(),
		user_id      BIGINT      NOT NULL REFERENCES "user"(id)
	)`,
	`CREATE INDEX IF NOT EXISTS todo_user_id_idx ON todo (user_id)`,
}

// Driver returns the configured engine name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites '?' placeholders into the engine's native bind syntax.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)

	sb.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)

			continue
		}

		n++
		sb.WriteString("$" + strconv.Itoa(n))
	}

	return sb.String()
}

// WithTx runs fn inside a transaction. The transaction commits if fn returns
// nil and rolls back on an error or a panic, so partial writes never become
// visible.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	if db.driver == DriverSQLite {
		db.writeLock.Lock()
		defer db.writeLock.Unlock()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(domain.ErrStorage, fmt.Errorf("begin tx: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()

			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				db.log.ErrorContext(ctx, "rollback failed", "error", rbErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(domain.ErrStorage, fmt.Errorf("commit tx: %w", err))
	}

	return nil
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}

	return false
}

// IsForeignKeyViolation reports whether err was caused by a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "foreign_key_violation"
	}

	return false
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
