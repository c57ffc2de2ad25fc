package economy

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is how often Run refreshes the timer.
const DefaultRefreshInterval = time.Second

// Run refreshes the booster timer on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Economy refresh loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Economy refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			res, err := s.Refresh(ctx)
			if err != nil {
				logger.Error("Timer refresh failed", "error", err)
				continue
			}
			if res.Granted > 0 {
				logger.Info("Free boosters granted", "granted", res.Granted)
			}
			if res.TamperDetected {
				logger.Warn("Clock moved backwards; cooldown restarted")
			}
		}
	}
}
