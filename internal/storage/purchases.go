package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// ErrDuplicateTransaction is returned when a transaction ID was already settled.
var ErrDuplicateTransaction = errors.New("transaction already settled")

// ErrPurchaseNotFound is returned when no purchase exists for a transaction ID.
var ErrPurchaseNotFound = errors.New("purchase not found")

// PurchaseEntry is one settled purchase.
type PurchaseEntry struct {
	TransactionID string    `json:"transactionId"`
	ProductID     string    `json:"productId"`
	Kind          string    `json:"kind"`
	Amount        int       `json:"amount"`
	Cost          int       `json:"cost"`
	SettledAt     time.Time `json:"settledAt"`
}

// PurchaseJournal records settled transactions so each is applied at most once.
type PurchaseJournal interface {
	// Record journals a settlement, or returns ErrDuplicateTransaction.
	Record(ctx context.Context, entry *PurchaseEntry) error

	// Get returns a settled purchase, or ErrPurchaseNotFound.
	Get(ctx context.Context, transactionID string) (*PurchaseEntry, error)

	// List returns the newest settlements.
	List(ctx context.Context, limit int) ([]*PurchaseEntry, error)
}

type purchaseJournal struct {
	q Querier
}

// NewPurchaseJournal creates a purchase journal.
func NewPurchaseJournal(q Querier) PurchaseJournal {
	return &purchaseJournal{q: q}
}

func (j *purchaseJournal) Record(ctx context.Context, entry *PurchaseEntry) error {
	if entry == nil || entry.TransactionID == "" {
		return errors.New("transaction id is required")
	}
	// A conflict inserts nothing and affects zero rows.
	query := `
		INSERT INTO purchases (transaction_id, product_id, kind, amount, cost, settled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO NOTHING
	`
	res, err := j.q.ExecContext(ctx, query,
		entry.TransactionID,
		entry.ProductID,
		entry.Kind,
		entry.Amount,
		entry.Cost,
		clock.ToUnixSeconds(entry.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to journal purchase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to journal purchase: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, entry.TransactionID)
	}
	return nil
}

func (j *purchaseJournal) Get(ctx context.Context, transactionID string) (*PurchaseEntry, error) {
	query := `
		SELECT transaction_id, product_id, kind, amount, cost, settled_at
		FROM purchases WHERE transaction_id = ?
	`
	e := &PurchaseEntry{}
	var settledAt float64
	err := j.q.QueryRowContext(ctx, query, strings.TrimSpace(transactionID)).
		Scan(&e.TransactionID, &e.ProductID, &e.Kind, &e.Amount, &e.Cost, &settledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	e.SettledAt = clock.FromUnixSeconds(settledAt)
	return e, nil
}

func (j *purchaseJournal) List(ctx context.Context, limit int) ([]*PurchaseEntry, error) {
	query := `
		SELECT transaction_id, product_id, kind, amount, cost, settled_at
		FROM purchases
		ORDER BY settled_at DESC
		LIMIT ?
	`
	rows, err := j.q.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*PurchaseEntry
	for rows.Next() {
		e := &PurchaseEntry{}
		var settledAt float64
		if err := rows.Scan(&e.TransactionID, &e.ProductID, &e.Kind, &e.Amount, &e.Cost, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		e.SettledAt = clock.FromUnixSeconds(settledAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return out, nil
}
