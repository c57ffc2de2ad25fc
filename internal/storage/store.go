package storage

import (
	"context"
	"database/sql"
)

// Store groups the repositories over one database.
type Store struct {
	db            *DB
	Records       RecordRepository
	History       HistoryRepository
	Notifications NotificationRepository
	Purchases     PurchaseJournal
}

// NewStore creates a store whose repositories use the connection pool.
func NewStore(db *DB) *Store {
	conn := db.Conn()
	return &Store{
		db:            db,
		Records:       NewRecordRepository(conn),
		History:       NewHistoryRepository(conn),
		Notifications: NewNotificationRepository(conn),
		Purchases:     NewPurchaseJournal(conn),
	}
}

// DB returns the underlying database.
func (s *Store) DB() *DB {
	return s.db
}

// Tx exposes the repositories bound to one transaction.
type Tx struct {
	Records       RecordRepository
	History       HistoryRepository
	Notifications NotificationRepository
	Purchases     PurchaseJournal
}

// InTx runs fn with repositories bound to a single transaction. Nothing fn writes
// is visible unless it returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithTransaction(ctx, func(sqlTx *sql.Tx) error {
		return fn(&Tx{
			Records:       NewRecordRepository(sqlTx),
			History:       NewHistoryRepository(sqlTx),
			Notifications: NewNotificationRepository(sqlTx),
			Purchases:     NewPurchaseJournal(sqlTx),
		})
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
