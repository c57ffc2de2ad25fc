// Package booster implements the free-booster replenishment timer.
package booster

import (
	"fmt"
	"math"
	"time"
)

// Config holds the fixed timer parameters.
type Config struct {
	// Cooldown is the time between free booster grants.
	Cooldown time.Duration

	// StarterBoosters is granted once on first run.
	StarterBoosters int

	// TamperTolerance is how far the clock may step backwards before it is
	// treated as manipulation.
	TamperTolerance time.Duration

	// SkipCostPerHour is the currency charged per started hour of remaining cooldown.
	SkipCostPerHour int
}

// DefaultConfig returns the production timer parameters.
func DefaultConfig() Config {
	return Config{
		Cooldown:        6 * time.Hour,
		StarterBoosters: 4,
		TamperTolerance: 5 * time.Minute,
		SkipCostPerHour: 50,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %v", c.Cooldown)
	}
	if c.StarterBoosters < 0 {
		return fmt.Errorf("starter boosters cannot be negative: %d", c.StarterBoosters)
	}
	if c.TamperTolerance < 0 {
		return fmt.Errorf("tamper tolerance cannot be negative: %v", c.TamperTolerance)
	}
	if c.SkipCostPerHour < 0 {
		return fmt.Errorf("skip cost per hour cannot be negative: %d", c.SkipCostPerHour)
	}
	return nil
}

// State is the persisted timer state.
type State struct {
	FreeBoosters  int       `json:"freeBoosters"`
	LastGrantTime time.Time `json:"lastGrantTime"`
}

// Phase is the derived position in the replenishment cycle.
type Phase int

const (
	// HasFreeBoosters means at least one booster can be opened.
	HasFreeBoosters Phase = iota
	// CoolingDown means no boosters are left and the cooldown is running.
	CoolingDown
	// BoosterReady means the cooldown elapsed and the grant is pending a refresh.
	BoosterReady
)

func (p Phase) String() string {
	switch p {
	case HasFreeBoosters:
		return "has_free_boosters"
	case CoolingDown:
		return "cooling_down"
	case BoosterReady:
		return "booster_ready"
	default:
		return "unknown"
	}
}

// RefreshResult reports what a refresh did.
type RefreshResult struct {
	Granted        int           `json:"granted"`
	Remaining      time.Duration `json:"remaining"`
	TamperDetected bool          `json:"tamperDetected"`
	Changed        bool          `json:"-"`
}

// Timer tracks free boosters and the cooldown anchor. It is not safe for
// concurrent use; the economy service serializes access.
type Timer struct {
	cfg   Config
	state State
}

// NewTimer wraps an existing state.
func NewTimer(cfg Config, state State) *Timer {
	if state.FreeBoosters < 0 {
		state.FreeBoosters = 0
	}
	return &Timer{cfg: cfg, state: state}
}

// StarterState is the first-run state: the starter grant anchored at now.
func StarterState(cfg Config, now time.Time) State {
	return State{FreeBoosters: cfg.StarterBoosters, LastGrantTime: now}
}

// Config returns the timer parameters.
func (t *Timer) Config() Config {
	return t.cfg
}

// State returns a copy of the current state.
func (t *Timer) State() State {
	return t.state
}

// FreeBoosters returns the number of boosters available.
func (t *Timer) FreeBoosters() int {
	return t.state.FreeBoosters
}

// Clone returns an independent copy.
func (t *Timer) Clone() *Timer {
	return &Timer{cfg: t.cfg, state: t.state}
}

// Remaining is the cooldown left at now for the given state. It never returns a
// negative duration, and a clock that stepped backwards reports a full cooldown.
func Remaining(now time.Time, state State, cooldown time.Duration) time.Duration {
	if state.LastGrantTime.IsZero() {
		return cooldown
	}
	elapsed := now.Sub(state.LastGrantTime)
	if elapsed < 0 {
		return cooldown
	}
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

// Remaining is the cooldown left at now.
func (t *Timer) Remaining(now time.Time) time.Duration {
	return Remaining(now, t.state, t.cfg.Cooldown)
}

// NextGrantAt is when the next free booster becomes available.
func (t *Timer) NextGrantAt(now time.Time) time.Time {
	return now.Add(t.Remaining(now))
}

// Phase derives the cycle position at now.
func (t *Timer) Phase(now time.Time) Phase {
	if t.state.FreeBoosters > 0 {
		return HasFreeBoosters
	}
	if t.Remaining(now) == 0 {
		return BoosterReady
	}
	return CoolingDown
}

// TamperDetected reports whether now lies further before the anchor than the
// tolerance allows.
func (t *Timer) TamperDetected(now time.Time) bool {
	if t.state.LastGrantTime.IsZero() {
		return false
	}
	return now.Before(t.state.LastGrantTime.Add(-t.cfg.TamperTolerance))
}

// Refresh applies any elapsed cooldown periods. Every full period since the anchor
// grants one booster and the anchor moves to now, so a repeated refresh for the same
// instant grants nothing. A backwards clock jump beyond the tolerance grants nothing,
// resets the anchor to now and is reported as tampering.
func (t *Timer) Refresh(now time.Time) RefreshResult {
	cooldown := t.cfg.Cooldown

	if t.state.LastGrantTime.IsZero() {
		t.state.LastGrantTime = now
		return RefreshResult{Remaining: cooldown, Changed: true}
	}

	if t.TamperDetected(now) {
		t.state.LastGrantTime = now
		return RefreshResult{Remaining: cooldown, TamperDetected: true, Changed: true}
	}

	elapsed := now.Sub(t.state.LastGrantTime)
	if elapsed < 0 {
		// Small backwards skew inside the tolerance counts as no time passed.
		elapsed = 0
	}

	if elapsed >= cooldown {
		granted := int(elapsed / cooldown)
		t.state.FreeBoosters += granted
		t.state.LastGrantTime = now
		return RefreshResult{Granted: granted, Remaining: 0, Changed: true}
	}

	return RefreshResult{Remaining: cooldown - elapsed}
}

// UseBooster consumes one free booster. It fails only when none are left.
func (t *Timer) UseBooster() bool {
	if t.state.FreeBoosters <= 0 {
		return false
	}
	t.state.FreeBoosters--
	return true
}

// Credit adds purchased boosters.
func (t *Timer) Credit(n int) error {
	if n <= 0 {
		return fmt.Errorf("booster credit must be positive, got %d", n)
	}
	t.state.FreeBoosters += n
	return nil
}

// SkipCost is the currency needed to finish the current cooldown at now.
// It charges SkipCostPerHour for every started hour of remaining time.
func (t *Timer) SkipCost(now time.Time) int {
	remaining := t.Remaining(now)
	if remaining <= 0 {
		return 0
	}
	hours := int(math.Ceil(remaining.Hours()))
	return hours * t.cfg.SkipCostPerHour
}

// CompleteCooldown grants the pending booster immediately and restarts the
// cooldown at now.
func (t *Timer) CompleteCooldown(now time.Time) {
	t.state.FreeBoosters++
	t.state.LastGrantTime = now
}
