package storage

import "testing"

// NewTestStore opens a migrated in-memory store that is closed with the test.
// Exported for tests in other packages.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	db, err := Open(DefaultConfig(MemoryPath))
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}
