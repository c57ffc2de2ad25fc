// Package economy is the single writer over the collection ledger, the booster
// timer and the milestone tracker. Every mutation is persisted in one
// transaction before the in-memory state changes.
package economy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/booster"
	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/clock"
	"github.com/ramonehamilton/booster-companion/internal/collection"
	"github.com/ramonehamilton/booster-companion/internal/draw"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/milestone"
	"github.com/ramonehamilton/booster-companion/internal/notify"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// DefaultEngagementReminder is how long after the last action the comeback
// reminder fires.
const DefaultEngagementReminder = 24 * time.Hour

// Options wires the service's collaborators.
type Options struct {
	Catalog *catalog.Catalog
	Engine  *draw.Engine
	Store   *storage.Store

	// Clock defaults to the system clock.
	Clock clock.Clock

	// Timer defaults to booster.DefaultConfig().
	Timer *booster.Config

	// Thresholds defaults to milestone.DefaultThresholds.
	Thresholds []int

	// Publisher, Notifier and Processor are optional.
	Publisher events.Publisher
	Notifier  notify.Scheduler
	Processor *purchase.Processor

	EngagementReminder time.Duration
}

// Service owns the economy state.
type Service struct {
	cat        *catalog.Catalog
	engine     *draw.Engine
	store      *storage.Store
	clock      clock.Clock
	timerCfg   booster.Config
	thresholds []int
	publisher  events.Publisher
	notifier   notify.Scheduler
	processor  *purchase.Processor
	engagement time.Duration

	mu         sync.Mutex
	loaded     bool
	ledger     *collection.Ledger
	timer      *booster.Timer
	milestones *milestone.Tracker
	tampered   bool
	report     LoadReport
}

// New validates the options. Call Load before any other operation.
func New(opts Options) (*Service, error) {
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("draw engine is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	timerCfg := booster.DefaultConfig()
	if opts.Timer != nil {
		timerCfg = *opts.Timer
	}
	if err := timerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timer config: %w", err)
	}

	s := &Service{
		cat:        opts.Catalog,
		engine:     opts.Engine,
		store:      opts.Store,
		clock:      opts.Clock,
		timerCfg:   timerCfg,
		thresholds: opts.Thresholds,
		publisher:  opts.Publisher,
		notifier:   opts.Notifier,
		processor:  opts.Processor,
		engagement: opts.EngagementReminder,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.thresholds == nil {
		s.thresholds = milestone.DefaultThresholds
	}
	if s.engagement <= 0 {
		s.engagement = DefaultEngagementReminder
	}
	return s, nil
}

// Catalog returns the card catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.cat
}

// Processor returns the purchase processor, or nil when purchases are disabled.
func (s *Service) Processor() *purchase.Processor {
	return s.processor
}

// mutation is a private copy of the state that an operation edits. It replaces
// the live state only after the transaction commits.
type mutation struct {
	source     string
	now        time.Time
	ledger     *collection.Ledger
	timer      *booster.Timer
	milestones *milestone.Tracker
	events     []events.Event
	// journal runs inside the commit transaction.
	journal func(ctx context.Context, tx *storage.Tx) error
}

func (s *Service) begin(source string) *mutation {
	return &mutation{
		source:     source,
		now:        s.clock.Now(),
		ledger:     s.ledger.Clone(),
		timer:      s.timer.Clone(),
		milestones: s.milestones.Clone(),
	}
}

func (m *mutation) emit(ctx context.Context, eventType string, data any) {
	m.events = append(m.events, events.NewTypedEvent(ctx, eventType, data, m.now))
}

func snapshotOf(l *collection.Ledger, t *booster.Timer) storage.EconomySnapshot {
	return storage.EconomySnapshot{
		Currency:     l.Currency(),
		FreeBoosters: t.FreeBoosters(),
		UniqueCards:  l.UniqueCount(),
		TotalCards:   l.TotalCount(),
	}
}

func encodeAll(now time.Time, l *collection.Ledger, t *booster.Timer, m *milestone.Tracker) ([]*storage.StoredRecord, error) {
	ledgerData, err := collection.Encode(l, now)
	if err != nil {
		return nil, err
	}
	timerData, err := booster.Encode(t.State())
	if err != nil {
		return nil, err
	}
	milestoneData, err := milestone.Encode(m)
	if err != nil {
		return nil, err
	}
	return []*storage.StoredRecord{
		{Key: storage.KeyLedger, Payload: ledgerData, Version: collection.CurrentVersion, UpdatedAt: now},
		{Key: storage.KeyTimer, Payload: timerData, Version: booster.CurrentVersion, UpdatedAt: now},
		{Key: storage.KeyMilestones, Payload: milestoneData, Version: milestone.CurrentVersion, UpdatedAt: now},
	}, nil
}

// batch collects what committed mutations produced during one operation.
type batch struct {
	events  []events.Event
	sources []string
}

// commit persists m and swaps it in. On error the live state is untouched.
// Callers hold s.mu.
func (s *Service) commit(ctx context.Context, b *batch, m *mutation) error {
	prev := snapshotOf(s.ledger, s.timer)
	next := snapshotOf(m.ledger, m.timer)
	changes := storage.DetectChanges(prev, next, m.source, m.now)

	records, err := encodeAll(m.now, m.ledger, m.timer, m.milestones)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", m.source, err)
	}

	err = s.store.InTx(ctx, func(tx *storage.Tx) error {
		for _, rec := range records {
			if err := tx.Records.Put(ctx, storage.SlotPrimary, rec); err != nil {
				return err
			}
		}
		if err := tx.History.Record(ctx, changes); err != nil {
			return err
		}
		if m.journal != nil {
			return m.journal(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", m.source, err)
	}

	s.ledger, s.timer, s.milestones = m.ledger, m.timer, m.milestones

	if prev.Currency != next.Currency {
		m.emit(ctx, events.TypeCurrencyChanged, events.CurrencyChangedEvent{
			Previous: prev.Currency,
			Current:  next.Currency,
			Delta:    next.Currency - prev.Currency,
			Source:   m.source,
		})
	}
	b.events = append(b.events, m.events...)
	b.sources = append(b.sources, m.source)
	return nil
}

// apply runs op under the writer lock. Events are published after the lock is
// released, so observers may call back into the service.
func (s *Service) apply(ctx context.Context, op func(b *batch) error) error {
	b := &batch{}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	err := op(b)
	s.mu.Unlock()

	if s.publisher != nil {
		for _, e := range b.events {
			s.publisher.Dispatch(e)
		}
	}
	if len(b.sources) > 0 {
		s.remind(ctx, b.sources)
	}
	return err
}

// remind refreshes the booster-ready and engagement reminders. Scheduling is
// fire-and-forget; failures are logged.
func (s *Service) remind(ctx context.Context, sources []string) {
	if s.notifier == nil {
		return
	}

	s.mu.Lock()
	free := s.timer.FreeBoosters()
	now := s.clock.Now()
	next := s.timer.NextGrantAt(now)
	s.mu.Unlock()

	if free == 0 {
		if err := s.notifier.Schedule(ctx, notify.KindBoosterReady, next, "A free booster is ready to open"); err != nil {
			log.Printf("[Economy] Failed to schedule booster reminder: %v", err)
		}
	} else if err := s.notifier.Cancel(ctx, notify.KindBoosterReady); err != nil {
		log.Printf("[Economy] Failed to cancel booster reminder: %v", err)
	}

	playerAction := false
	for _, src := range sources {
		if src != sourceTimer && src != sourceLoad {
			playerAction = true
		}
	}
	if !playerAction {
		return
	}
	if err := s.notifier.Schedule(ctx, notify.KindEngagement, now.Add(s.engagement), "Your collection misses you"); err != nil {
		log.Printf("[Economy] Failed to schedule engagement reminder: %v", err)
	}
}
