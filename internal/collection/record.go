package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/clock"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 2

// ErrUnreadable is returned when a stored record cannot be decoded at all.
var ErrUnreadable = errors.New("ledger record unreadable")

// Record is the current (v2) persisted form of the ledger.
type Record struct {
	Version   int           `json:"version"`
	Entries   []EntryRecord `json:"entries"`
	Currency  int           `json:"currency"`
	Timestamp float64       `json:"timestamp"`
}

// EntryRecord is one persisted ledger entry.
type EntryRecord struct {
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	CatalogNumber int    `json:"catalogNumber"`
	Count         int    `json:"count"`
}

// RecordV1 entries were keyed by name and rarity only.
type RecordV1 struct {
	Version   int       `json:"version"`
	Entries   []EntryV1 `json:"entries"`
	Currency  int       `json:"currency"`
	Timestamp float64   `json:"timestamp"`
}

// EntryV1 is a v1 ledger entry.
type EntryV1 struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	Count  int    `json:"count"`
}

// RecordV0 is the unversioned dictionary-era save format.
type RecordV0 struct {
	Collection []EntryV0 `json:"collection"`
	Coins      int       `json:"coins"`
	SavedAt    float64   `json:"savedAt"`
}

// EntryV0 is a v0 ledger entry. Rarity uses display spellings.
type EntryV0 struct {
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Quantity int    `json:"quantity"`
}

// LoadReport describes what Decode had to do to produce a ledger.
type LoadReport struct {
	FromVersion int
	Migrated    bool
	Skipped     int
	SavedAt     time.Time
}

// ToRecord snapshots the ledger in the current schema.
func (l *Ledger) ToRecord(savedAt time.Time) Record {
	rec := Record{
		Version:   CurrentVersion,
		Entries:   make([]EntryRecord, 0, len(l.entries)),
		Currency:  l.currency,
		Timestamp: clock.ToUnixSeconds(savedAt),
	}
	for _, e := range l.Entries() {
		rec.Entries = append(rec.Entries, EntryRecord{
			Name:          e.Card.Name,
			Rarity:        e.Card.Rarity.String(),
			CatalogNumber: e.Card.CatalogNumber,
			Count:         e.Count,
		})
	}
	return rec
}

// Encode serializes the ledger in the current schema.
func Encode(l *Ledger, savedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(l.ToRecord(savedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return data, nil
}

// Decode parses a stored ledger of any known version, migrating it to the current
// schema. Individual entries that are missing required fields or cannot be resolved
// against the catalog are skipped and counted in the report.
func Decode(data []byte, cat *catalog.Catalog) (*Ledger, LoadReport, error) {
	var report LoadReport
	if len(data) == 0 {
		return nil, report, fmt.Errorf("%w: empty payload", ErrUnreadable)
	}

	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	version := 0
	if probe.Version != nil {
		version = *probe.Version
	}
	report.FromVersion = version

	var rec Record
	switch version {
	case 0:
		v0, skipped, err := decodeV0(data)
		if err != nil {
			return nil, report, err
		}
		report.Skipped += skipped
		v1, skipped := MigrateV0ToV1(v0)
		report.Skipped += skipped
		rec, skipped = MigrateV1ToV2(v1, cat)
		report.Skipped += skipped
		report.Migrated = true
	case 1:
		v1, skipped, err := decodeV1(data)
		if err != nil {
			return nil, report, err
		}
		report.Skipped += skipped
		rec, skipped = MigrateV1ToV2(v1, cat)
		report.Skipped += skipped
		report.Migrated = true
	case CurrentVersion:
		var skipped int
		var err error
		rec, skipped, err = decodeV2(data)
		if err != nil {
			return nil, report, err
		}
		report.Skipped += skipped
	default:
		return nil, report, fmt.Errorf("%w: unsupported version %d", ErrUnreadable, version)
	}

	ledger, skipped := FromRecord(rec, cat)
	report.Skipped += skipped
	report.SavedAt = clock.FromUnixSeconds(rec.Timestamp)

	if report.Skipped > 0 {
		log.Printf("[Ledger] Skipped %d unreadable entries while loading v%d record", report.Skipped, version)
	}

	return ledger, report, nil
}

// FromRecord builds a ledger from a current-schema record. The catalog number is
// authoritative; entries with unknown numbers or counts below one are skipped.
func FromRecord(rec Record, cat *catalog.Catalog) (*Ledger, int) {
	l := NewLedger()
	skipped := 0
	for _, e := range rec.Entries {
		card, ok := cat.ByNumber(e.CatalogNumber)
		if !ok || e.Count < 1 {
			skipped++
			continue
		}
		l.put(card, e.Count)
	}

	l.currency = rec.Currency
	if l.currency < 0 {
		log.Printf("[Ledger] Clamping negative stored currency %d to 0", rec.Currency)
		l.currency = 0
	}
	return l, skipped
}

// MigrateV0ToV1 renames v0 fields and normalizes legacy rarity spellings.
// Entries with unknown rarities or non-positive quantities are dropped.
func MigrateV0ToV1(v0 RecordV0) (RecordV1, int) {
	out := RecordV1{
		Version:   1,
		Entries:   make([]EntryV1, 0, len(v0.Collection)),
		Currency:  v0.Coins,
		Timestamp: v0.SavedAt,
	}
	skipped := 0
	for _, e := range v0.Collection {
		r, err := catalog.ParseRarity(e.Rarity)
		if err != nil || e.Quantity < 1 {
			skipped++
			continue
		}
		out.Entries = append(out.Entries, EntryV1{Name: e.Name, Rarity: r.String(), Count: e.Quantity})
	}
	return out, skipped
}

// MigrateV1ToV2 resolves each name+rarity entry to its catalog number.
// Entries that match no catalog card are dropped.
func MigrateV1ToV2(v1 RecordV1, cat *catalog.Catalog) (Record, int) {
	out := Record{
		Version:   CurrentVersion,
		Entries:   make([]EntryRecord, 0, len(v1.Entries)),
		Currency:  v1.Currency,
		Timestamp: v1.Timestamp,
	}
	skipped := 0
	for _, e := range v1.Entries {
		r, err := catalog.ParseRarity(e.Rarity)
		if err != nil || e.Count < 1 {
			skipped++
			continue
		}
		card, ok := cat.Lookup(e.Name, r)
		if !ok {
			skipped++
			continue
		}
		out.Entries = append(out.Entries, EntryRecord{
			Name:          card.Name,
			Rarity:        card.Rarity.String(),
			CatalogNumber: card.CatalogNumber,
			Count:         e.Count,
		})
	}
	return out, skipped
}

// rawRecord decodes the envelope of any version while keeping entries raw, so one
// bad entry cannot fail the whole document.
type rawRecord struct {
	Entries    []json.RawMessage `json:"entries"`
	Collection []json.RawMessage `json:"collection"`
	Currency   int               `json:"currency"`
	Coins      int               `json:"coins"`
	Timestamp  float64           `json:"timestamp"`
	SavedAt    float64           `json:"savedAt"`
}

func decodeEnvelope(data []byte) (rawRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return raw, nil
}

func decodeV0(data []byte) (RecordV0, int, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return RecordV0{}, 0, err
	}

	rec := RecordV0{Coins: raw.Coins, SavedAt: raw.SavedAt}
	skipped := 0
	for _, msg := range raw.Collection {
		var e struct {
			Name     *string `json:"name"`
			Rarity   *string `json:"rarity"`
			Quantity *int    `json:"quantity"`
		}
		if err := json.Unmarshal(msg, &e); err != nil || e.Name == nil || e.Rarity == nil || e.Quantity == nil {
			skipped++
			continue
		}
		rec.Collection = append(rec.Collection, EntryV0{Name: *e.Name, Rarity: *e.Rarity, Quantity: *e.Quantity})
	}
	return rec, skipped, nil
}

func decodeV1(data []byte) (RecordV1, int, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return RecordV1{}, 0, err
	}

	rec := RecordV1{Version: 1, Currency: raw.Currency, Timestamp: raw.Timestamp}
	skipped := 0
	for _, msg := range raw.Entries {
		var e struct {
			Name   *string `json:"name"`
			Rarity *string `json:"rarity"`
			Count  *int    `json:"count"`
		}
		if err := json.Unmarshal(msg, &e); err != nil || e.Name == nil || e.Rarity == nil || e.Count == nil {
			skipped++
			continue
		}
		rec.Entries = append(rec.Entries, EntryV1{Name: *e.Name, Rarity: *e.Rarity, Count: *e.Count})
	}
	return rec, skipped, nil
}

func decodeV2(data []byte) (Record, int, error) {
	raw, err := decodeEnvelope(data)
	if err != nil {
		return Record{}, 0, err
	}

	rec := Record{Version: CurrentVersion, Currency: raw.Currency, Timestamp: raw.Timestamp}
	skipped := 0
	for _, msg := range raw.Entries {
		var e struct {
			Name          string `json:"name"`
			Rarity        string `json:"rarity"`
			CatalogNumber *int   `json:"catalogNumber"`
			Count         *int   `json:"count"`
		}
		if err := json.Unmarshal(msg, &e); err != nil || e.CatalogNumber == nil || e.Count == nil {
			skipped++
			continue
		}
		rec.Entries = append(rec.Entries, EntryRecord{
			Name:          e.Name,
			Rarity:        e.Rarity,
			CatalogNumber: *e.CatalogNumber,
			Count:         *e.Count,
		})
	}
	return rec, skipped, nil
}
