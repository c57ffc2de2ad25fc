package economy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/booster"
	"github.com/ramonehamilton/booster-companion/internal/clock"
	"github.com/ramonehamilton/booster-companion/internal/collection"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/milestone"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// Mutation sources recorded in the audit trail.
const (
	sourceLoad       = "load"
	sourceTimer      = "timer"
	sourceOpen       = "open_booster"
	sourceSell       = "sell"
	sourceSellDupes  = "sell_duplicates"
	sourceSkip       = "skip_wait"
	sourceBuyBooster = "booster_purchase"
	sourceBuyCoins   = "currency_purchase"
)

// RecordSource says where a record was loaded from.
type RecordSource string

const (
	SourcePrimary RecordSource = "primary"
	SourceBackup  RecordSource = "backup"
	SourceDefault RecordSource = "default"
)

// RecordLoad describes how one record was recovered.
type RecordLoad struct {
	Source      RecordSource `json:"source"`
	FromVersion int          `json:"fromVersion"`
	Migrated    bool         `json:"migrated"`
	Skipped     int          `json:"skipped"`
	Problem     string       `json:"problem,omitempty"`
}

// LoadReport summarizes Load.
type LoadReport struct {
	Ledger         RecordLoad `json:"ledger"`
	Timer          RecordLoad `json:"timer"`
	Milestones     RecordLoad `json:"milestones"`
	StarterGrant   int        `json:"starterGrant"`
	Granted        int        `json:"granted"`
	TamperDetected bool       `json:"tamperDetected"`
}

type decodeFunc[T any] func(data []byte) (value T, version, skipped int, err error)

// loadRecord reads key from the primary slot, then the backup slot. A readable
// primary refreshes the backup, so a primary that needs migration has its
// original bytes written to the backup slot first. Undecodable payloads are
// logged and skipped. Only storage failures are returned.
func loadRecord[T any](ctx context.Context, tx *storage.Tx, key string, current int, decode decodeFunc[T]) (T, RecordLoad, bool, error) {
	var zero T
	var problems []string

	primary, err := tx.Records.Get(ctx, storage.SlotPrimary, key)
	switch {
	case err == nil:
		value, version, skipped, derr := decode(primary.Payload)
		if derr == nil {
			if err := refreshBackup(ctx, tx, primary, skipped); err != nil {
				return zero, RecordLoad{}, false, err
			}
			if version < current {
				log.Printf("[Economy] Migrated %s record from version %d to %d", key, version, current)
			}
			return value, RecordLoad{
				Source:      SourcePrimary,
				FromVersion: version,
				Migrated:    version < current,
				Skipped:     skipped,
			}, true, nil
		}
		log.Printf("[Economy] Primary %s record unreadable: %v", key, derr)
		problems = append(problems, "primary: "+derr.Error())
	case errors.Is(err, storage.ErrRecordNotFound):
	default:
		return zero, RecordLoad{}, false, err
	}

	backup, err := tx.Records.Get(ctx, storage.SlotBackup, key)
	switch {
	case err == nil:
		value, version, skipped, derr := decode(backup.Payload)
		if derr == nil {
			log.Printf("[Economy] Restored %s from backup (version %d)", key, version)
			return value, RecordLoad{
				Source:      SourceBackup,
				FromVersion: version,
				Migrated:    version < current,
				Skipped:     skipped,
				Problem:     joinProblems(problems),
			}, true, nil
		}
		log.Printf("[Economy] Backup %s record unreadable: %v", key, derr)
		problems = append(problems, "backup: "+derr.Error())
	case errors.Is(err, storage.ErrRecordNotFound):
	default:
		return zero, RecordLoad{}, false, err
	}

	return zero, RecordLoad{Source: SourceDefault, Problem: joinProblems(problems)}, false, nil
}

// refreshBackup copies the primary bytes into the backup slot. A primary with
// skipped entries never replaces an existing backup, which may still hold them.
func refreshBackup(ctx context.Context, tx *storage.Tx, primary *storage.StoredRecord, skipped int) error {
	if skipped > 0 {
		_, err := tx.Records.Get(ctx, storage.SlotBackup, primary.Key)
		switch {
		case err == nil:
			log.Printf("[Economy] Kept %s backup; primary skipped %d entries", primary.Key, skipped)
			return nil
		case !errors.Is(err, storage.ErrRecordNotFound):
			return err
		}
	}
	backup := *primary
	return tx.Records.Put(ctx, storage.SlotBackup, &backup)
}

func joinProblems(p []string) string {
	return strings.Join(p, "; ")
}

// Load restores the economy from storage, applies any catch-up grant and writes
// the current records back. Corrupt or missing records fall back to the backup
// slot and then to defaults; those recoveries are reported, not returned.
func (s *Service) Load(ctx context.Context) (LoadReport, error) {
	b := &batch{}

	s.mu.Lock()
	report, err := s.loadLocked(ctx, b)
	s.mu.Unlock()
	if err != nil {
		return report, err
	}

	if s.publisher != nil {
		for _, e := range b.events {
			s.publisher.Dispatch(e)
		}
	}
	s.remind(ctx, b.sources)
	return report, nil
}

func (s *Service) loadLocked(ctx context.Context, b *batch) (LoadReport, error) {
	var report LoadReport
	now := s.clock.Now()

	var (
		ledger     *collection.Ledger
		timerState booster.State
		tracker    *milestone.Tracker
		haveLedger bool
		haveTimer  bool
		haveMarks  bool
	)

	err := s.store.InTx(ctx, func(tx *storage.Tx) error {
		var err error

		ledger, report.Ledger, haveLedger, err = loadRecord(ctx, tx, storage.KeyLedger, collection.CurrentVersion,
			func(data []byte) (*collection.Ledger, int, int, error) {
				l, rep, err := collection.Decode(data, s.cat)
				return l, rep.FromVersion, rep.Skipped, err
			})
		if err != nil {
			return err
		}

		timerState, report.Timer, haveTimer, err = loadRecord(ctx, tx, storage.KeyTimer, booster.CurrentVersion,
			func(data []byte) (booster.State, int, int, error) {
				st, version, err := booster.Decode(data)
				return st, version, 0, err
			})
		if err != nil {
			return err
		}

		tracker, report.Milestones, haveMarks, err = loadRecord(ctx, tx, storage.KeyMilestones, milestone.CurrentVersion,
			func(data []byte) (*milestone.Tracker, int, int, error) {
				t, version, err := milestone.Decode(data, s.thresholds)
				return t, version, 0, err
			})
		return err
	})
	if err != nil {
		return report, fmt.Errorf("failed to read saved economy: %w", err)
	}

	if !haveLedger {
		ledger = collection.NewLedger()
	}
	if !haveMarks {
		tracker = milestone.NewTracker(s.thresholds)
	}

	// The decoded state is the baseline commit diffs against, so the audit
	// trail records starter and catch-up grants.
	s.ledger = ledger
	s.timer = booster.NewTimer(s.timerCfg, timerState)
	s.milestones = tracker

	m := s.begin(sourceLoad)
	m.now = now
	if !haveTimer {
		m.timer = booster.NewTimer(s.timerCfg, booster.StarterState(s.timerCfg, now))
		report.StarterGrant = m.timer.FreeBoosters()
		if report.StarterGrant > 0 {
			m.emit(ctx, events.TypeBoosterGranted, events.BoosterGrantedEvent{
				Granted:      report.StarterGrant,
				FreeBoosters: m.timer.FreeBoosters(),
				Source:       "starter",
			})
		}
	}

	res := s.refreshInto(ctx, m)
	report.Granted = res.Granted
	report.TamperDetected = res.TamperDetected
	s.checkMilestones(ctx, m)

	if err := s.commit(ctx, b, m); err != nil {
		s.loaded = false
		return report, err
	}

	s.loaded = true
	s.tampered = res.TamperDetected
	s.report = report
	log.Printf("[Economy] Loaded: %d unique cards, %d currency, %d free boosters (ledger=%s timer=%s milestones=%s)",
		s.ledger.UniqueCount(), s.ledger.Currency(), s.timer.FreeBoosters(),
		report.Ledger.Source, report.Timer.Source, report.Milestones.Source)
	return report, nil
}

// refreshInto applies the timer catch-up to m and queues the matching events.
func (s *Service) refreshInto(ctx context.Context, m *mutation) booster.RefreshResult {
	previousAnchor := m.timer.State().LastGrantTime
	res := m.timer.Refresh(m.now)

	if res.TamperDetected {
		log.Printf("[Economy] Clock moved backwards: anchor %s, now %s", previousAnchor.Format(time.RFC3339), m.now.Format(time.RFC3339))
		m.emit(ctx, events.TypeTimerTamper, events.TimerTamperEvent{
			PreviousAnchor: clock.ToUnixSeconds(previousAnchor),
			Now:            clock.ToUnixSeconds(m.now),
		})
	}
	if res.Granted > 0 {
		m.emit(ctx, events.TypeBoosterGranted, events.BoosterGrantedEvent{
			Granted:      res.Granted,
			FreeBoosters: m.timer.FreeBoosters(),
			Source:       sourceTimer,
		})
	}
	return res
}

// checkMilestones fires any newly crossed completion thresholds.
func (s *Service) checkMilestones(ctx context.Context, m *mutation) []int {
	owned, total := m.ledger.UniqueCount(), s.cat.Size()
	fired := m.milestones.Check(owned, total)
	for _, th := range fired {
		log.Printf("[Economy] Milestone reached: %d%% (%d/%d)", th, owned, total)
		m.emit(ctx, events.TypeMilestoneReached, events.MilestoneReachedEvent{
			Threshold: th,
			Owned:     owned,
			Total:     total,
		})
	}
	return fired
}

// LastLoad returns the report of the most recent Load.
func (s *Service) LastLoad() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}
