package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// BackupScheduler takes periodic snapshots while the server runs.
type BackupScheduler struct {
	manager  *BackupManager
	interval time.Duration
	opts     BackupOptions
	logger   *slog.Logger

	mu           sync.RWMutex
	running      bool
	lastBackup   time.Time
	lastPath     string
	lastError    error
	backupCount  int
	failureCount int
}

// NewBackupScheduler creates a scheduler. A nil logger uses slog.Default().
func NewBackupScheduler(manager *BackupManager, interval time.Duration, opts BackupOptions, logger *slog.Logger) *BackupScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupScheduler{
		manager:  manager,
		interval: interval,
		opts:     opts,
		logger:   logger,
	}
}

// Run snapshots on every tick until ctx is cancelled.
func (s *BackupScheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("backup scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("backup scheduler started", "interval", s.interval, "dir", s.manager.Dir())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce takes one snapshot and records the outcome.
func (s *BackupScheduler) RunOnce(ctx context.Context) {
	opts := s.opts
	opts.Name = "" // every scheduled snapshot gets a fresh timestamped name
	path, err := s.manager.Backup(ctx, opts)

	s.mu.Lock()
	s.lastBackup = time.Now()
	s.lastError = err
	if err != nil {
		s.failureCount++
	} else {
		s.lastPath = path
		s.backupCount++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled backup failed", "error", err)
		return
	}
	s.logger.Info("scheduled backup written", "path", path)
}

// SchedulerStatus summarizes scheduler activity.
type SchedulerStatus struct {
	Running      bool          `json:"running"`
	Interval     time.Duration `json:"interval"`
	LastBackup   time.Time     `json:"lastBackup"`
	LastPath     string        `json:"lastPath,omitempty"`
	BackupCount  int           `json:"backupCount"`
	FailureCount int           `json:"failureCount"`
	LastError    string        `json:"lastError,omitempty"`
}

// Status returns the current scheduler status.
func (s *BackupScheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SchedulerStatus{
		Running:      s.running,
		Interval:     s.interval,
		LastBackup:   s.lastBackup,
		LastPath:     s.lastPath,
		BackupCount:  s.backupCount,
		FailureCount: s.failureCount,
	}
	if s.lastError != nil {
		st.LastError = s.lastError.Error()
	}
	return st
}
