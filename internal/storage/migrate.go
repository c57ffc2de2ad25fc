package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion is the newest embedded migration.
const SchemaVersion = 2

// MigrationManager applies the embedded schema migrations.
type MigrationManager struct {
	migrate *migrate.Migrate
	owned   bool
}

func embeddedSource() (source.Driver, error) {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	return src, nil
}

// databaseURL converts a file path into a sqlite:// URL understood by the driver.
func databaseURL(dbPath string) string {
	normalized := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && normalized[0] != '/' {
		// Windows drive paths need a leading slash.
		normalized = "/" + normalized
	}
	return "sqlite://" + normalized
}

// NewMigrationManager opens its own connection to the database file at dbPath.
func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	src, err := embeddedSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return &MigrationManager{migrate: m, owned: true}, nil
}

// newInstanceMigrationManager migrates through an existing pool. Closing the
// manager leaves the pool open.
func newInstanceMigrationManager(conn *sql.DB) (*MigrationManager, error) {
	src, err := embeddedSource()
	if err != nil {
		return nil, err
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return &MigrationManager{migrate: m}, nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	if err := mm.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Down rolls back every migration.
func (mm *MigrationManager) Down() error {
	if err := mm.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

// Steps applies n migrations; negative n rolls back.
func (mm *MigrationManager) Steps(n int) error {
	if err := mm.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

// Version returns the applied schema version. A fresh database reports 0.
func (mm *MigrationManager) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the source and, for file managers, the database connection.
func (mm *MigrationManager) Close() error {
	if !mm.owned {
		// The database driver would close the caller's pool.
		return nil
	}
	srcErr, dbErr := mm.migrate.Close()
	if srcErr != nil {
		return fmt.Errorf("failed to close source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

func migrateFile(dbPath string) error {
	mgr, err := NewMigrationManager(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("[Storage] Failed to close migration manager: %v", err)
		}
	}()
	return runUp(mgr)
}

func migrateInstance(conn *sql.DB) error {
	mgr, err := newInstanceMigrationManager(conn)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}
	return runUp(mgr)
}

func runUp(mgr *MigrationManager) error {
	before, _, err := mgr.Version()
	if err != nil {
		return err
	}
	if err := mgr.Up(); err != nil {
		return err
	}
	after, _, err := mgr.Version()
	if err != nil {
		return err
	}
	if after != before {
		log.Printf("[Storage] Schema migrated from version %d to %d", before, after)
	}
	return nil
}
