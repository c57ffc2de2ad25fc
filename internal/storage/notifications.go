package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// Notification is a reminder scheduled for a future time.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	FireAt    time.Time `json:"fireAt"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationRepository stores scheduled reminders.
type NotificationRepository interface {
	// Schedule stores n, assigning an ID when empty. The stored ID is returned.
	Schedule(ctx context.Context, n *Notification) (string, error)

	// CancelKind removes undelivered notifications of a kind and returns how many.
	CancelKind(ctx context.Context, kind string) (int, error)

	// Due returns undelivered notifications with FireAt at or before now, oldest first.
	Due(ctx context.Context, now time.Time) ([]*Notification, error)

	// MarkDelivered flags a notification as delivered.
	MarkDelivered(ctx context.Context, id string) error

	// Pending returns all undelivered notifications, soonest first.
	Pending(ctx context.Context) ([]*Notification, error)
}

type notificationRepository struct {
	q Querier
}

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(q Querier) NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Schedule(ctx context.Context, n *Notification) (string, error) {
	if n == nil || n.Kind == "" {
		return "", errors.New("notification kind is required")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (id, kind, message, fire_at, delivered, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET
			message = excluded.message,
			fire_at = excluded.fire_at,
			delivered = 0
	`
	_, err := r.q.ExecContext(ctx, query,
		n.ID,
		n.Kind,
		n.Message,
		clock.ToUnixSeconds(n.FireAt),
		clock.ToUnixSeconds(n.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to schedule notification: %w", err)
	}
	return n.ID, nil
}

func (r *notificationRepository) CancelKind(ctx context.Context, kind string) (int, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM notifications WHERE kind = ? AND delivered = 0`, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel %s notifications: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled notifications: %w", err)
	}
	return int(n), nil
}

func (r *notificationRepository) Due(ctx context.Context, now time.Time) ([]*Notification, error) {
	query := `
		SELECT id, kind, message, fire_at, delivered, created_at
		FROM notifications
		WHERE delivered = 0 AND fire_at <= ?
		ORDER BY fire_at ASC
	`
	return r.list(ctx, query, clock.ToUnixSeconds(now))
}

func (r *notificationRepository) Pending(ctx context.Context) ([]*Notification, error) {
	query := `
		SELECT id, kind, message, fire_at, delivered, created_at
		FROM notifications
		WHERE delivered = 0
		ORDER BY fire_at ASC
	`
	return r.list(ctx, query)
}

func (r *notificationRepository) MarkDelivered(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]*Notification, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Notification
	for rows.Next() {
		n := &Notification{}
		var fireAt, createdAt float64
		var delivered int
		if err := rows.Scan(&n.ID, &n.Kind, &n.Message, &fireAt, &delivered, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.FireAt = clock.FromUnixSeconds(fireAt)
		n.CreatedAt = clock.FromUnixSeconds(createdAt)
		n.Delivered = delivered != 0
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}
