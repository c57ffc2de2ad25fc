// Package notify schedules booster-ready and engagement reminders and delivers
// them when due.
package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// Reminder kinds.
const (
	KindBoosterReady = "booster_ready"
	KindEngagement   = "engagement"
)

// Scheduler accepts "notify at time T" requests. Requests are fire-and-forget:
// a new request for a kind replaces any pending reminder of that kind.
type Scheduler interface {
	Schedule(ctx context.Context, kind string, fireAt time.Time, message string) error
	Cancel(ctx context.Context, kind string) error
}

// StoreScheduler persists reminders in the notifications table.
type StoreScheduler struct {
	repo storage.NotificationRepository
}

// NewStoreScheduler creates a scheduler backed by repo.
func NewStoreScheduler(repo storage.NotificationRepository) *StoreScheduler {
	return &StoreScheduler{repo: repo}
}

// Schedule replaces pending reminders of kind with one firing at fireAt.
func (s *StoreScheduler) Schedule(ctx context.Context, kind string, fireAt time.Time, message string) error {
	if _, err := s.repo.CancelKind(ctx, kind); err != nil {
		return err
	}
	id, err := s.repo.Schedule(ctx, &storage.Notification{Kind: kind, Message: message, FireAt: fireAt})
	if err != nil {
		return fmt.Errorf("failed to schedule %s reminder: %w", kind, err)
	}
	log.Printf("[Notify] Scheduled %s reminder %s for %s", kind, id, fireAt.Format(time.RFC3339))
	return nil
}

// Cancel drops pending reminders of kind.
func (s *StoreScheduler) Cancel(ctx context.Context, kind string) error {
	n, err := s.repo.CancelKind(ctx, kind)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Notify] Cancelled %d %s reminder(s)", n, kind)
	}
	return nil
}

// Request is one call recorded by Recorder.
type Request struct {
	Kind     string
	FireAt   time.Time
	Message  string
	Canceled bool
}

// Recorder keeps requests in memory.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// Schedule records the request.
func (r *Recorder) Schedule(_ context.Context, kind string, fireAt time.Time, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, Request{Kind: kind, FireAt: fireAt, Message: message})
	return nil
}

// Cancel records the cancellation.
func (r *Recorder) Cancel(_ context.Context, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, Request{Kind: kind, Canceled: true})
	return nil
}

// Requests returns all recorded requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// Last returns the newest scheduling request of kind.
func (r *Recorder) Last(kind string) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.requests) - 1; i >= 0; i-- {
		if r.requests[i].Kind == kind && !r.requests[i].Canceled {
			return r.requests[i], true
		}
	}
	return Request{}, false
}
