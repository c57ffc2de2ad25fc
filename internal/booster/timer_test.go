package booster

import (
	"testing"
	"time"
)

var anchor = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestTimer(free int) *Timer {
	return NewTimer(DefaultConfig(), State{FreeBoosters: free, LastGrantTime: anchor})
}

func TestRefreshGrantsOnePerElapsedCooldown(t *testing.T) {
	tm := newTestTimer(0)

	res := tm.Refresh(anchor.Add(18*time.Hour + 30*time.Minute))
	if res.Granted != 3 {
		t.Fatalf("expected 3 boosters granted, got %d", res.Granted)
	}
	if tm.FreeBoosters() != 3 {
		t.Errorf("expected 3 free boosters, got %d", tm.FreeBoosters())
	}
	if res.Remaining != 0 {
		t.Errorf("expected zero remaining after grant, got %v", res.Remaining)
	}
	if !tm.State().LastGrantTime.Equal(anchor.Add(18*time.Hour + 30*time.Minute)) {
		t.Errorf("expected anchor reset to refresh time, got %v", tm.State().LastGrantTime)
	}
}

func TestRefreshGrantsRegardlessOfBalance(t *testing.T) {
	tm := newTestTimer(7)
	res := tm.Refresh(anchor.Add(6 * time.Hour))
	if res.Granted != 1 || tm.FreeBoosters() != 8 {
		t.Fatalf("expected one grant on top of 7, got granted=%d free=%d", res.Granted, tm.FreeBoosters())
	}
}

func TestRefreshIsIdempotentForSameInstant(t *testing.T) {
	tm := newTestTimer(0)
	now := anchor.Add(7 * time.Hour)

	first := tm.Refresh(now)
	second := tm.Refresh(now)

	if first.Granted != 1 {
		t.Fatalf("expected first refresh to grant 1, got %d", first.Granted)
	}
	if second.Granted != 0 || second.Changed {
		t.Errorf("expected second refresh to be a no-op, got %+v", second)
	}
	if tm.FreeBoosters() != 1 {
		t.Errorf("expected 1 free booster, got %d", tm.FreeBoosters())
	}
}

func TestRefreshBeforeCooldown(t *testing.T) {
	tm := newTestTimer(0)
	res := tm.Refresh(anchor.Add(2 * time.Hour))

	if res.Granted != 0 || res.Changed {
		t.Fatalf("expected no grant, got %+v", res)
	}
	if res.Remaining != 4*time.Hour {
		t.Errorf("expected 4h remaining, got %v", res.Remaining)
	}
}

func TestRefreshDetectsBackwardsClock(t *testing.T) {
	// Anchor stored one hour in the future relative to now.
	now := anchor
	tm := NewTimer(DefaultConfig(), State{FreeBoosters: 0, LastGrantTime: now.Add(time.Hour)})

	res := tm.Refresh(now)
	if !res.TamperDetected {
		t.Fatal("expected tamper to be detected")
	}
	if res.Granted != 0 || tm.FreeBoosters() != 0 {
		t.Errorf("expected no grant on tamper, got granted=%d free=%d", res.Granted, tm.FreeBoosters())
	}
	if !tm.State().LastGrantTime.Equal(now) {
		t.Errorf("expected anchor reset to now, got %v", tm.State().LastGrantTime)
	}

	// Time now flows normally from the reset anchor.
	res = tm.Refresh(now.Add(6 * time.Hour))
	if res.TamperDetected || res.Granted != 1 {
		t.Errorf("expected normal grant after reset, got %+v", res)
	}
}

func TestRefreshToleratesSmallSkew(t *testing.T) {
	tm := newTestTimer(0)
	res := tm.Refresh(anchor.Add(-2 * time.Minute))

	if res.TamperDetected {
		t.Fatal("expected small skew to be tolerated")
	}
	if res.Remaining != 6*time.Hour {
		t.Errorf("expected full cooldown remaining, got %v", res.Remaining)
	}
	if !tm.State().LastGrantTime.Equal(anchor) {
		t.Errorf("expected anchor unchanged, got %v", tm.State().LastGrantTime)
	}
}

func TestRefreshWithoutAnchorStartsCooldown(t *testing.T) {
	tm := NewTimer(DefaultConfig(), State{})
	res := tm.Refresh(anchor)
	if !res.Changed || res.Granted != 0 {
		t.Fatalf("expected anchor initialization without grant, got %+v", res)
	}
	if !tm.State().LastGrantTime.Equal(anchor) {
		t.Errorf("expected anchor set, got %v", tm.State().LastGrantTime)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	state := State{LastGrantTime: anchor}
	cooldown := 6 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"at anchor", anchor, 6 * time.Hour},
		{"midway", anchor.Add(90 * time.Minute), 270 * time.Minute},
		{"exactly elapsed", anchor.Add(6 * time.Hour), 0},
		{"long after", anchor.Add(100 * time.Hour), 0},
		{"before anchor", anchor.Add(-time.Hour), 6 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.now, state, cooldown); got != tt.want {
				t.Errorf("Remaining() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhase(t *testing.T) {
	if p := newTestTimer(2).Phase(anchor); p != HasFreeBoosters {
		t.Errorf("expected HasFreeBoosters, got %v", p)
	}
	if p := newTestTimer(0).Phase(anchor.Add(time.Hour)); p != CoolingDown {
		t.Errorf("expected CoolingDown, got %v", p)
	}
	if p := newTestTimer(0).Phase(anchor.Add(6 * time.Hour)); p != BoosterReady {
		t.Errorf("expected BoosterReady, got %v", p)
	}
}

func TestUseBooster(t *testing.T) {
	tm := newTestTimer(1)
	if !tm.UseBooster() {
		t.Fatal("expected first use to succeed")
	}
	if tm.UseBooster() {
		t.Fatal("expected use with zero boosters to fail")
	}
	if tm.FreeBoosters() != 0 {
		t.Errorf("expected count to stay at 0, got %d", tm.FreeBoosters())
	}
}

func TestCredit(t *testing.T) {
	tm := newTestTimer(1)
	if err := tm.Credit(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tm.FreeBoosters() != 6 {
		t.Errorf("expected 6 boosters, got %d", tm.FreeBoosters())
	}
	if err := tm.Credit(0); err == nil {
		t.Error("expected error crediting zero boosters")
	}
}

func TestSkipCost(t *testing.T) {
	tm := newTestTimer(0)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"full cooldown", anchor, 300},
		{"partial hour rounds up", anchor.Add(5*time.Hour + time.Minute), 50},
		{"just over an hour", anchor.Add(4*time.Hour + 59*time.Minute), 100},
		{"just started", anchor.Add(time.Minute), 300},
		{"elapsed", anchor.Add(6 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tm.SkipCost(tt.now); got != tt.want {
				t.Errorf("SkipCost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompleteCooldown(t *testing.T) {
	tm := newTestTimer(0)
	now := anchor.Add(2 * time.Hour)
	tm.CompleteCooldown(now)

	if tm.FreeBoosters() != 1 {
		t.Errorf("expected 1 booster, got %d", tm.FreeBoosters())
	}
	if tm.Remaining(now) != 6*time.Hour {
		t.Errorf("expected cooldown restarted, got %v", tm.Remaining(now))
	}
}

func TestStarterState(t *testing.T) {
	s := StarterState(DefaultConfig(), anchor)
	if s.FreeBoosters != 4 || !s.LastGrantTime.Equal(anchor) {
		t.Errorf("unexpected starter state: %+v", s)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Cooldown = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero cooldown")
	}
}
