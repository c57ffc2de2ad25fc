// Package milestone tracks one-shot collection completion milestones.
package milestone

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// DefaultThresholds are the completion percentages that trigger a milestone.
var DefaultThresholds = []int{25, 50, 75}

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 1

// ErrUnreadable is returned when a stored milestone record cannot be decoded.
var ErrUnreadable = errors.New("milestone record unreadable")

// Tracker remembers which thresholds have fired. A threshold fires at most once.
type Tracker struct {
	thresholds []int
	triggered  map[int]bool
}

// NewTracker creates a tracker with the given thresholds. Nil uses DefaultThresholds.
func NewTracker(thresholds []int) *Tracker {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	ts := append([]int(nil), thresholds...)
	sort.Ints(ts)
	return &Tracker{thresholds: ts, triggered: make(map[int]bool)}
}

// Percent is the whole-number completion percentage, rounded down.
func Percent(owned, total int) int {
	if total <= 0 || owned <= 0 {
		return 0
	}
	if owned > total {
		owned = total
	}
	return owned * 100 / total
}

// Check marks and returns every threshold at or below the current completion
// that has not fired yet, in ascending order. An empty catalog fires nothing.
func (t *Tracker) Check(owned, total int) []int {
	if total <= 0 {
		return nil
	}
	pct := Percent(owned, total)

	var fired []int
	for _, th := range t.thresholds {
		if th > pct {
			break
		}
		if t.triggered[th] {
			continue
		}
		t.triggered[th] = true
		fired = append(fired, th)
	}
	return fired
}

// Triggered returns the fired thresholds in ascending order.
func (t *Tracker) Triggered() []int {
	out := make([]int, 0, len(t.triggered))
	for th := range t.triggered {
		out = append(out, th)
	}
	sort.Ints(out)
	return out
}

// Thresholds returns the configured thresholds.
func (t *Tracker) Thresholds() []int {
	return append([]int(nil), t.thresholds...)
}

// Clone returns an independent copy.
func (t *Tracker) Clone() *Tracker {
	c := &Tracker{
		thresholds: append([]int(nil), t.thresholds...),
		triggered:  make(map[int]bool, len(t.triggered)),
	}
	for th := range t.triggered {
		c.triggered[th] = true
	}
	return c
}

// Record is the persisted set of fired thresholds.
type Record struct {
	Version   int   `json:"version"`
	Triggered []int `json:"triggered"`
}

// Encode serializes the fired thresholds.
func Encode(t *Tracker) ([]byte, error) {
	data, err := json.Marshal(Record{Version: CurrentVersion, Triggered: t.Triggered()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode milestones: %w", err)
	}
	return data, nil
}

// Decode restores a tracker from a stored record and reports the version found.
// Values that are not configured thresholds are dropped. An unversioned bare array
// is accepted as the legacy format, version 0.
func Decode(data []byte, thresholds []int) (*Tracker, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty payload", ErrUnreadable)
	}

	var values []int
	version := 0
	var rec Record
	if err := json.Unmarshal(data, &rec); err == nil {
		if rec.Version > CurrentVersion {
			return nil, rec.Version, fmt.Errorf("%w: unsupported version %d", ErrUnreadable, rec.Version)
		}
		values = rec.Triggered
		version = rec.Version
	} else if err := json.Unmarshal(data, &values); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	t := NewTracker(thresholds)
	known := make(map[int]bool, len(t.thresholds))
	for _, th := range t.thresholds {
		known[th] = true
	}
	for _, v := range values {
		if known[v] {
			t.triggered[v] = true
		}
	}
	return t, version, nil
}
