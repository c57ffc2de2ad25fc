package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	backupExt          = ".db"
	encryptedBackupExt = ".db.enc"
)

// BackupManager writes and restores snapshots of the save database.
type BackupManager struct {
	db  *DB
	dir string
}

// NewBackupManager creates a backup manager. An empty dir places snapshots in a
// "backups" directory next to the database file.
func NewBackupManager(db *DB, dir string) *BackupManager {
	if dir == "" && db != nil {
		dir = filepath.Join(filepath.Dir(db.Path()), "backups")
	}
	return &BackupManager{db: db, dir: dir}
}

// Dir returns the snapshot directory.
func (bm *BackupManager) Dir() string {
	return bm.dir
}

// BackupOptions controls a single snapshot.
type BackupOptions struct {
	// Name is the file name without extension. Empty generates a timestamped name.
	Name string

	// Password encrypts the snapshot with EncryptFile when set.
	Password string

	// Verify opens the snapshot and checks its schema after writing.
	Verify bool
}

// Backup writes a consistent snapshot with VACUUM INTO and returns its path.
func (bm *BackupManager) Backup(ctx context.Context, opts BackupOptions) (string, error) {
	if bm.db == nil {
		return "", errors.New("backup manager has no database")
	}
	if err := os.MkdirAll(bm.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := opts.Name
	if name == "" {
		name = "save_" + time.Now().Format("20060102_150405")
	}
	snapshotPath := filepath.Join(bm.dir, name+backupExt)
	if _, err := os.Stat(snapshotPath); err == nil {
		return "", fmt.Errorf("backup %s already exists", snapshotPath)
	}

	escaped := strings.ReplaceAll(snapshotPath, "'", "''")
	if _, err := bm.db.Conn().ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", escaped)); err != nil {
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}

	if opts.Verify {
		if err := VerifyBackup(snapshotPath); err != nil {
			_ = os.Remove(snapshotPath)
			return "", fmt.Errorf("backup verification failed: %w", err)
		}
	}

	if opts.Password == "" {
		log.Printf("[Backup] Wrote snapshot %s", snapshotPath)
		return snapshotPath, nil
	}

	encryptedPath := filepath.Join(bm.dir, name+encryptedBackupExt)
	if err := EncryptFile(snapshotPath, encryptedPath, DefaultEncryptionConfig(opts.Password)); err != nil {
		_ = os.Remove(snapshotPath)
		return "", fmt.Errorf("failed to encrypt backup: %w", err)
	}
	if err := os.Remove(snapshotPath); err != nil {
		log.Printf("[Backup] Failed to remove plaintext snapshot %s: %v", snapshotPath, err)
	}
	log.Printf("[Backup] Wrote encrypted snapshot %s", encryptedPath)
	return encryptedPath, nil
}

// VerifyBackup checks that path is a readable SQLite file carrying the save schema.
func VerifyBackup(path string) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup as database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var count int
	err = conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('records', 'record_backups')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to query backup database: %w", err)
	}
	if count != 2 {
		return errors.New("backup does not contain save records")
	}
	return nil
}

// RestoreBackup replaces the database file at dbPath with a snapshot. The
// database must not be open. The current file is kept alongside with an .old suffix.
func RestoreBackup(backupPath, dbPath, password string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	tempPath := dbPath + ".restore.tmp"
	encrypted, err := IsEncrypted(backupPath)
	if err != nil {
		return fmt.Errorf("failed to inspect backup: %w", err)
	}
	if encrypted {
		if password == "" {
			return errors.New("backup is encrypted and no password was given")
		}
		if err := DecryptFile(backupPath, tempPath, DefaultEncryptionConfig(password)); err != nil {
			return err
		}
	} else if err := copyFile(backupPath, tempPath); err != nil {
		return err
	}

	if err := VerifyBackup(tempPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("restored database verification failed: %w", err)
	}

	if _, err := os.Stat(dbPath); err == nil {
		oldPath := dbPath + ".old." + time.Now().Format("20060102_150405")
		if err := os.Rename(dbPath, oldPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to move current database aside: %w", err)
		}
		// WAL sidecars belong to the old file.
		for _, suffix := range []string{"-wal", "-shm"} {
			if err := os.Rename(dbPath+suffix, oldPath+suffix); err != nil && !os.IsNotExist(err) {
				log.Printf("[Backup] Failed to move %s aside: %v", dbPath+suffix, err)
			}
		}
	}

	if err := os.Rename(tempPath, dbPath); err != nil {
		return fmt.Errorf("failed to replace database with backup: %w", err)
	}
	log.Printf("[Backup] Restored %s from %s", dbPath, backupPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create temporary restore file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	return out.Close()
}

// BackupInfo describes one snapshot file.
type BackupInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	Checksum  string    `json:"checksum"`
	Encrypted bool      `json:"encrypted"`
}

// ListBackups returns the snapshots in the backup directory, newest first.
func (bm *BackupManager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		encrypted := strings.HasSuffix(name, encryptedBackupExt)
		if entry.IsDir() || (!encrypted && filepath.Ext(name) != backupExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(bm.dir, name)
		checksum, err := checksumFile(path)
		if err != nil {
			checksum = "unknown"
		}
		backups = append(backups, BackupInfo{
			Path:      path,
			Name:      name,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Checksum:  checksum,
			Encrypted: encrypted,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
