package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

// Config holds database configuration
type Config struct {
	URL string

	ConnectAttempts int
	ConnectDelay    time.Duration
	ConnectTimeout  time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	AutoMigrate bool
	LogQueries  bool

	// OnRetry is passed to the startup gate.
	OnRetry func(attempt int, err error)
}

// DB is an open, migrated database owned by the caller.
type DB struct {
	conn       *sql.DB
	dialect    Dialect
	logQueries bool
}

// Open parses cfg.URL, waits for the database to become reachable and applies
// migrations. A *StartupError is returned when the database never answered.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	target, err := ParseTarget(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("database target is invalid")
		return nil, &StartupError{Target: "<invalid>", Attempts: 0, Err: err}
	}
	if target.IsMemory() {
		return nil, &StartupError{
			Target: target.Redacted(),
			Err:    fmt.Errorf("%w: memory target has no database", ErrInvalidTarget),
		}
	}

	if target.Dialect == DialectSQLite {
		if err := ensureDatabaseDirectory(sqlitePath(target.DSN)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = DefaultConnectAttempts
	}
	gate := NewGate(attempts, cfg.ConnectDelay)
	gate.OnRetry = cfg.OnRetry

	conn, err := gate.Wait(ctx, target, Connect(target, cfg.ConnectTimeout))
	if err != nil {
		return nil, err
	}

	configurePool(conn, target.Dialect, cfg)

	d := &DB{conn: conn, dialect: target.Dialect, logQueries: cfg.LogQueries}

	if cfg.AutoMigrate {
		if err := d.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return d, nil
}

// New wraps an already open connection. Intended for tests and tools that
// manage the connection themselves.
func New(conn *sql.DB, dialect Dialect) *DB {
	return &DB{conn: conn, dialect: dialect}
}

func configurePool(conn *sql.DB, dialect Dialect, cfg Config) {
	if dialect == DialectSQLite {
		// SQLite works best with a single writer
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// Close closes the database connection
func (d *DB) Close() error {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// Ping verifies the database is still reachable.
func (d *DB) Ping(ctx context.Context) error {
	return livenessCheck(ctx, d.conn)
}

// Dialect reports the SQL flavour of the connection.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	return path
}

// ensureDatabaseDirectory creates the directory for the database file if it doesn't exist
func ensureDatabaseDirectory(dbPath string) error {
	if dbPath == "" || dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		log.Info().Str("dir", dir).Msg("created database directory")
	}
	return nil
}
