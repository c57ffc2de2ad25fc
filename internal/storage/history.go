package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// Economy fields tracked in the audit trail.
const (
	FieldCurrency     = "currency"
	FieldFreeBoosters = "free_boosters"
	FieldUniqueCards  = "unique_cards"
	FieldTotalCards   = "total_cards"
)

// EconomySnapshot is the set of tracked counters at one point in time.
type EconomySnapshot struct {
	Currency     int
	FreeBoosters int
	UniqueCards  int
	TotalCards   int
}

// EconomyChange is one changed field in the audit trail.
type EconomyChange struct {
	ID            int64     `json:"id"`
	Field         string    `json:"field"`
	PreviousValue int       `json:"previousValue"`
	NewValue      int       `json:"newValue"`
	Delta         int       `json:"delta"`
	Source        string    `json:"source,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DetectChanges returns one change per field that differs between prev and next.
func DetectChanges(prev, next EconomySnapshot, source string, at time.Time) []EconomyChange {
	var changes []EconomyChange
	check := func(field string, oldVal, newVal int) {
		if oldVal == newVal {
			return
		}
		changes = append(changes, EconomyChange{
			Field:         field,
			PreviousValue: oldVal,
			NewValue:      newVal,
			Delta:         newVal - oldVal,
			Source:        source,
			CreatedAt:     at,
		})
	}

	check(FieldCurrency, prev.Currency, next.Currency)
	check(FieldFreeBoosters, prev.FreeBoosters, next.FreeBoosters)
	check(FieldUniqueCards, prev.UniqueCards, next.UniqueCards)
	check(FieldTotalCards, prev.TotalCards, next.TotalCards)
	return changes
}

// HistoryRepository stores the economy audit trail.
type HistoryRepository interface {
	// Record appends changes to the history.
	Record(ctx context.Context, changes []EconomyChange) error

	// GetHistory returns the newest changes to one field.
	GetHistory(ctx context.Context, field string, limit int) ([]*EconomyChange, error)

	// GetRecentChanges returns the newest changes across all fields.
	GetRecentChanges(ctx context.Context, limit int) ([]*EconomyChange, error)

	// GetChangesSince returns changes at or after since, oldest first.
	GetChangesSince(ctx context.Context, since time.Time) ([]*EconomyChange, error)
}

type historyRepository struct {
	q Querier
}

// NewHistoryRepository creates a history repository over a pool or a transaction.
func NewHistoryRepository(q Querier) HistoryRepository {
	return &historyRepository{q: q}
}

func (r *historyRepository) Record(ctx context.Context, changes []EconomyChange) error {
	query := `
		INSERT INTO economy_history (field, previous_value, new_value, delta, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i := range changes {
		c := &changes[i]
		var source any
		if c.Source != "" {
			source = c.Source
		}
		res, err := r.q.ExecContext(ctx, query,
			c.Field,
			c.PreviousValue,
			c.NewValue,
			c.Delta,
			source,
			clock.ToUnixSeconds(c.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to record %s change: %w", c.Field, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			c.ID = id
		}
	}
	return nil
}

func (r *historyRepository) GetHistory(ctx context.Context, field string, limit int) ([]*EconomyChange, error) {
	query := `
		SELECT id, field, previous_value, new_value, delta, source, created_at
		FROM economy_history
		WHERE field = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.query(ctx, query, field, normalizeLimit(limit))
}

func (r *historyRepository) GetRecentChanges(ctx context.Context, limit int) ([]*EconomyChange, error) {
	query := `
		SELECT id, field, previous_value, new_value, delta, source, created_at
		FROM economy_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.query(ctx, query, normalizeLimit(limit))
}

func (r *historyRepository) GetChangesSince(ctx context.Context, since time.Time) ([]*EconomyChange, error) {
	query := `
		SELECT id, field, previous_value, new_value, delta, source, created_at
		FROM economy_history
		WHERE created_at >= ?
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query, clock.ToUnixSeconds(since))
}

func (r *historyRepository) query(ctx context.Context, query string, args ...any) ([]*EconomyChange, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query economy history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*EconomyChange
	for rows.Next() {
		c := &EconomyChange{}
		var source *string
		var createdAt float64
		if err := rows.Scan(&c.ID, &c.Field, &c.PreviousValue, &c.NewValue, &c.Delta, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan economy change: %w", err)
		}
		if source != nil {
			c.Source = *source
		}
		c.CreatedAt = clock.FromUnixSeconds(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating economy history: %w", err)
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
