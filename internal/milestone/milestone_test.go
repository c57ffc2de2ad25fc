package milestone

import (
	"errors"
	"reflect"
	"testing"
)

func TestCheckFiresOncePerThreshold(t *testing.T) {
	tr := NewTracker(nil)

	if got := tr.Check(10, 40); !reflect.DeepEqual(got, []int{25}) {
		t.Fatalf("expected [25] at 25%%, got %v", got)
	}
	if got := tr.Check(10, 40); len(got) != 0 {
		t.Errorf("expected no repeat at 25%%, got %v", got)
	}
	if got := tr.Check(11, 40); len(got) != 0 {
		t.Errorf("expected nothing new at 27%%, got %v", got)
	}
}

func TestCheckJumpFiresEveryCrossedThreshold(t *testing.T) {
	tr := NewTracker(nil)
	if got := tr.Check(31, 40); !reflect.DeepEqual(got, []int{25, 50, 75}) {
		t.Fatalf("expected all thresholds in order, got %v", got)
	}
}

func TestCheckFiresAboveExactThreshold(t *testing.T) {
	// 13 of 50 is 26%, which has crossed 25 without landing on it.
	tr := NewTracker(nil)
	if got := tr.Check(13, 50); !reflect.DeepEqual(got, []int{25}) {
		t.Fatalf("expected [25] at 26%%, got %v", got)
	}
}

func TestCheckRegressionDoesNotRefire(t *testing.T) {
	// 50 cards: 12 owned is 24%, 13 is 26%, 10 is 20%.
	tr := NewTracker(nil)

	if got := tr.Check(12, 50); len(got) != 0 {
		t.Fatalf("expected nothing at 24%%, got %v", got)
	}
	if got := tr.Check(13, 50); !reflect.DeepEqual(got, []int{25}) {
		t.Fatalf("expected [25] when crossing to 26%%, got %v", got)
	}
	if got := tr.Check(10, 50); len(got) != 0 {
		t.Errorf("expected nothing on regression to 20%%, got %v", got)
	}
	if got := tr.Check(13, 50); len(got) != 0 {
		t.Errorf("expected no re-fire after climbing back to 26%%, got %v", got)
	}
}

func TestCheckEmptyCatalog(t *testing.T) {
	tr := NewTracker(nil)
	if got := tr.Check(0, 0); got != nil {
		t.Errorf("expected nothing for empty catalog, got %v", got)
	}
	if len(tr.Triggered()) != 0 {
		t.Errorf("expected no triggered thresholds, got %v", tr.Triggered())
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		owned, total, want int
	}{
		{0, 40, 0},
		{1, 40, 2},
		{20, 40, 50},
		{40, 40, 100},
		{50, 40, 100},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.owned, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.owned, tt.total, got, tt.want)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	tr := NewTracker(nil)
	tr.Check(21, 40)

	data, err := Encode(tr)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, version, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if version != CurrentVersion {
		t.Errorf("expected version %d, got %d", CurrentVersion, version)
	}
	if !reflect.DeepEqual(got.Triggered(), []int{25, 50}) {
		t.Errorf("expected [25 50], got %v", got.Triggered())
	}
	if fired := got.Check(21, 40); len(fired) != 0 {
		t.Errorf("expected restored tracker not to refire, got %v", fired)
	}
}

func TestDecodeLegacyArrayAndUnknownValues(t *testing.T) {
	got, version, err := Decode([]byte(`[25, 33, 75]`), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if version != 0 {
		t.Errorf("expected legacy version 0, got %d", version)
	}
	if !reflect.DeepEqual(got.Triggered(), []int{25, 75}) {
		t.Errorf("expected [25 75], got %v", got.Triggered())
	}
}

func TestDecodeUnreadable(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(`"nope"`), []byte(`{"version":5,"triggered":[]}`)} {
		if _, _, err := Decode(data, nil); !errors.Is(err, ErrUnreadable) {
			t.Errorf("Decode(%q): expected ErrUnreadable, got %v", data, err)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := NewTracker(nil)
	c := tr.Clone()
	c.Check(40, 40)
	if len(tr.Triggered()) != 0 {
		t.Errorf("expected original untouched, got %v", tr.Triggered())
	}
}
