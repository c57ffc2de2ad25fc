package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/clock"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// Dispatcher publishes stored reminders once they are due.
type Dispatcher struct {
	repo      storage.NotificationRepository
	publisher events.Publisher
	clock     clock.Clock
	interval  time.Duration
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(repo storage.NotificationRepository, publisher events.Publisher, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		clock:     clk,
		interval:  interval,
		logger:    logger,
	}
}

// Run delivers due reminders on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("notification dispatcher started", "interval", d.interval)
	for {
		if _, err := d.DeliverDue(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("failed to deliver notifications", "error", err)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// DeliverDue publishes every due reminder and marks it delivered. It returns the
// number delivered.
func (d *Dispatcher) DeliverDue(ctx context.Context) (int, error) {
	now := d.clock.Now()
	due, err := d.repo.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range due {
		if err := d.repo.MarkDelivered(ctx, n.ID); err != nil {
			return delivered, err
		}
		d.publisher.Dispatch(events.NewTypedEvent(ctx, events.TypeNotificationDue, events.NotificationDueEvent{
			ID:      n.ID,
			Kind:    n.Kind,
			Message: n.Message,
			FireAt:  clock.ToUnixSeconds(n.FireAt),
		}, now))
		d.logger.Debug("notification delivered", "id", n.ID, "kind", n.Kind)
		delivered++
	}
	return delivered, nil
}
