package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func seedRecord(t *testing.T, store *Store, payload string) {
	t.Helper()
	err := store.Records.Put(context.Background(), SlotPrimary, &StoredRecord{Key: KeyLedger, Payload: []byte(payload), Version: 2})
	if err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}
}

func readLedgerPayload(t *testing.T, dbPath string) string {
	t.Helper()
	db, err := Open(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("Failed to open restored database: %v", err)
	}
	defer db.Close()

	rec, err := NewRecordRepository(db.Conn()).Get(context.Background(), SlotPrimary, KeyLedger)
	if err != nil {
		t.Fatalf("Failed to read restored record: %v", err)
	}
	return string(rec.Payload)
}

func TestBackupManager_BackupAndRestore(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, `{"version":2,"entries":[],"currency":10}`)

	mgr := NewBackupManager(store.DB(), "")
	if mgr.Dir() != filepath.Join(filepath.Dir(store.DB().Path()), "backups") {
		t.Errorf("Unexpected default backup dir: %s", mgr.Dir())
	}

	path, err := mgr.Backup(context.Background(), BackupOptions{Name: "first", Verify: true})
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if filepath.Base(path) != "first.db" {
		t.Errorf("Expected first.db, got %s", path)
	}

	if _, err := mgr.Backup(context.Background(), BackupOptions{Name: "first"}); err == nil {
		t.Error("Expected error when overwriting an existing backup")
	}

	// Change the live database, then restore the snapshot into a fresh path.
	seedRecord(t, store, `{"version":2,"entries":[],"currency":99}`)

	target := filepath.Join(t.TempDir(), "restored.db")
	if err := RestoreBackup(path, target, ""); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := readLedgerPayload(t, target); got != `{"version":2,"entries":[],"currency":10}` {
		t.Errorf("Unexpected restored payload: %s", got)
	}
}

func TestBackupManager_RestoreKeepsOldFile(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, `{}`)
	mgr := NewBackupManager(store.DB(), t.TempDir())

	path, err := mgr.Backup(context.Background(), BackupOptions{Name: "snap"})
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	target := filepath.Join(t.TempDir(), "live.db")
	if err := os.WriteFile(target, []byte("stale"), 0o644); err != nil {
		t.Fatalf("Failed to write target: %v", err)
	}
	if err := RestoreBackup(path, target, ""); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	matches, _ := filepath.Glob(target + ".old.*")
	if len(matches) != 1 {
		t.Errorf("Expected the replaced file to be kept, found %v", matches)
	}
}

func TestRestoreBackup_MovesSidecarsWithOldFile(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, `{}`)
	mgr := NewBackupManager(store.DB(), t.TempDir())

	path, err := mgr.Backup(context.Background(), BackupOptions{Name: "snap"})
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	target := filepath.Join(t.TempDir(), "live.db")
	files := map[string]string{target: "stale", target + "-wal": "pending wal", target + "-shm": "shm"}
	for name, content := range files {
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := RestoreBackup(path, target, ""); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(target + suffix); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be moved away, stat error = %v", target+suffix, err)
		}
	}

	olds, _ := filepath.Glob(target + ".old.*-wal")
	if len(olds) != 1 {
		t.Fatalf("Expected the old WAL to be kept, found %v", olds)
	}
	got, err := os.ReadFile(olds[0])
	if err != nil || string(got) != "pending wal" {
		t.Errorf("Old WAL content = %q, err = %v", got, err)
	}
}

func TestBackupManager_EncryptedBackup(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, `{"secret":true}`)
	mgr := NewBackupManager(store.DB(), t.TempDir())

	path, err := mgr.Backup(context.Background(), BackupOptions{Name: "locked", Password: "hunter2", Verify: true})
	if err != nil {
		t.Fatalf("Encrypted backup failed: %v", err)
	}
	if filepath.Base(path) != "locked.db.enc" {
		t.Errorf("Expected locked.db.enc, got %s", path)
	}
	if _, err := os.Stat(filepath.Join(mgr.Dir(), "locked.db")); !os.IsNotExist(err) {
		t.Error("Expected plaintext snapshot to be removed")
	}

	encrypted, err := IsEncrypted(path)
	if err != nil || !encrypted {
		t.Fatalf("Expected encrypted file, got %v (err=%v)", encrypted, err)
	}

	target := filepath.Join(t.TempDir(), "restored.db")
	if err := RestoreBackup(path, target, ""); err == nil {
		t.Error("Expected restore without password to fail")
	}
	if err := RestoreBackup(path, target, "wrong"); err == nil {
		t.Error("Expected restore with wrong password to fail")
	}
	if err := RestoreBackup(path, target, "hunter2"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := readLedgerPayload(t, target); got != `{"secret":true}` {
		t.Errorf("Unexpected restored payload: %s", got)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 || !backups[0].Encrypted {
		t.Errorf("Expected one encrypted backup, got %+v", backups)
	}
}

func TestListBackups_MissingDir(t *testing.T) {
	mgr := NewBackupManager(nil, filepath.Join(t.TempDir(), "none"))
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("Expected no backups, got %d", len(backups))
	}
}

func TestVerifyBackup_RejectsForeignFiles(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("definitely not sqlite, just some bytes for the header"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := VerifyBackup(garbage); err == nil {
		t.Error("Expected garbage file to fail verification")
	}

	// A valid SQLite file without the save schema.
	other := filepath.Join(dir, "other.db")
	db, err := Open(&Config{Path: other, BusyTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Conn().Exec(`CREATE TABLE unrelated (id INTEGER)`); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
	if err := VerifyBackup(other); err == nil {
		t.Error("Expected database without save tables to fail verification")
	}
}

func TestBackupScheduler_RunOnceAndRun(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, `{}`)
	mgr := NewBackupManager(store.DB(), t.TempDir())

	sched := NewBackupScheduler(mgr, time.Hour, BackupOptions{Verify: true}, nil)
	sched.RunOnce(context.Background())

	st := sched.Status()
	if st.BackupCount != 1 || st.FailureCount != 0 || st.LastPath == "" {
		t.Errorf("Unexpected status after RunOnce: %+v", st)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !sched.Status().Running && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := sched.Run(ctx); err == nil {
		t.Error("Expected second Run to fail while running")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
	if sched.Status().Running {
		t.Error("Expected scheduler to stop after cancel")
	}
}
