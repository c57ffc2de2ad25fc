// Package storage persists the booster economy in SQLite: versioned save records
// with a backup slot, the economy audit trail, scheduled notifications and the
// purchase journal.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the database connection pool.
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration settings.
type Config struct {
	// Path is the SQLite file. MemoryPath keeps everything in memory.
	Path string

	// MaxOpenConns caps the pool. In-memory databases always use one connection.
	MaxOpenConns int

	MaxIdleConns int

	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode is the SQLite journal mode. Default: WAL.
	JournalMode string

	// Synchronous is the SQLite synchronous mode. Default: NORMAL.
	Synchronous string

	// AutoMigrate applies pending schema migrations on Open.
	AutoMigrate bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		AutoMigrate:     true,
	}
}

func (c *Config) inMemory() bool {
	return c.Path == MemoryPath
}

// dsn builds a modernc connection string with per-connection pragmas.
func (c *Config) dsn() string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()),
		"foreign_keys(1)",
	}
	if c.JournalMode != "" && !c.inMemory() {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}

	params := make([]string, 0, len(pragmas)+1)
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	params = append(params, "_txlock=immediate")
	return c.Path + "?" + strings.Join(params, "&")
}

// Open creates the connection pool and, when configured, brings the schema up to date.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.Path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if !config.inMemory() {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		// File databases are migrated through their own connection before the pool opens.
		if config.AutoMigrate {
			if err := migrateFile(config.Path); err != nil {
				return nil, err
			}
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.inMemory() {
		// Every new connection to :memory: is a different database.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(config.MaxOpenConns)
		conn.SetMaxIdleConns(config.MaxIdleConns)
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if config.inMemory() && config.AutoMigrate {
		if err := migrateInstance(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return &DB{conn: conn, path: config.Path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying pool for raw queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
