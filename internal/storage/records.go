package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// Record keys used by the economy.
const (
	KeyLedger     = "ledger"
	KeyTimer      = "timer"
	KeyMilestones = "milestones"
)

// ErrRecordNotFound is returned when a slot holds no record for a key.
var ErrRecordNotFound = errors.New("record not found")

// Slot selects the primary or the backup copy of a record.
type Slot int

const (
	SlotPrimary Slot = iota
	SlotBackup
)

func (s Slot) table() string {
	if s == SlotBackup {
		return "record_backups"
	}
	return "records"
}

func (s Slot) String() string {
	if s == SlotBackup {
		return "backup"
	}
	return "primary"
}

// StoredRecord is a raw save record as persisted.
type StoredRecord struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"-"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordRepository reads and writes versioned save records.
type RecordRepository interface {
	// Get returns the record stored under key in slot, or ErrRecordNotFound.
	Get(ctx context.Context, slot Slot, key string) (*StoredRecord, error)

	// Put replaces the record stored under key in slot.
	Put(ctx context.Context, slot Slot, rec *StoredRecord) error
}

type recordRepository struct {
	q Querier
}

// NewRecordRepository creates a record repository over a pool or a transaction.
func NewRecordRepository(q Querier) RecordRepository {
	return &recordRepository{q: q}
}

func (r *recordRepository) Get(ctx context.Context, slot Slot, key string) (*StoredRecord, error) {
	query := fmt.Sprintf(`SELECT key, payload, version, updated_at FROM %s WHERE key = ?`, slot.table())

	rec := &StoredRecord{}
	var updatedAt float64
	err := r.q.QueryRowContext(ctx, query, key).Scan(&rec.Key, &rec.Payload, &rec.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record %q: %w", slot, key, err)
	}
	rec.UpdatedAt = clock.FromUnixSeconds(updatedAt)
	return rec, nil
}

func (r *recordRepository) Put(ctx context.Context, slot Slot, rec *StoredRecord) error {
	if rec == nil || rec.Key == "" {
		return errors.New("record key is required")
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (key, payload, version, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, slot.table())

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err := r.q.ExecContext(ctx, query, rec.Key, rec.Payload, rec.Version, clock.ToUnixSeconds(updatedAt)); err != nil {
		return fmt.Errorf("failed to put %s record %q: %w", slot, rec.Key, err)
	}
	return nil
}
