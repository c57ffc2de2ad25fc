package storage

import (
	"path/filepath"
	"testing"
)

// openTestDB opens a migrated database file in a temporary directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "save.db")))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// openTestStore wraps openTestDB in a Store.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(openTestDB(t))
}
