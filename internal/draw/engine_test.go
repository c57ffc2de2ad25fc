package draw

import (
	"errors"
	"math"
	"testing"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.CardDefinition{
		{Name: "A", Rarity: catalog.Common, CatalogNumber: 1},
		{Name: "B", Rarity: catalog.Common, CatalogNumber: 2},
		{Name: "C", Rarity: catalog.Rare, CatalogNumber: 3},
		{Name: "D", Rarity: catalog.Epic, CatalogNumber: 4},
		{Name: "E", Rarity: catalog.Legendary, CatalogNumber: 5},
		{Name: "F", Rarity: catalog.UltraRare, CatalogNumber: 6},
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return c
}

func TestDrawFrequenciesMatchWeights(t *testing.T) {
	e, err := NewSeeded(testCatalog(t), 42)
	if err != nil {
		t.Fatalf("NewSeeded failed: %v", err)
	}

	const n = 200_000
	dist := e.Simulate(n)
	if dist.Draws != n {
		t.Fatalf("Draws = %d, want %d", dist.Draws, n)
	}

	for _, stat := range dist.Tiers {
		if diff := math.Abs(stat.Observed - stat.Weight); diff > 0.01 {
			t.Errorf("tier %s observed %.4f, configured %.4f (diff %.4f)", stat.Rarity, stat.Observed, stat.Weight, diff)
		}
	}
}

func TestDrawIsDeterministicForSeed(t *testing.T) {
	c := testCatalog(t)
	a, _ := NewSeeded(c, 7)
	b, _ := NewSeeded(c, 7)

	for i := 0; i < 100; i++ {
		if x, y := a.Draw(), b.Draw(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestEmptyWeightedTierFailsFast(t *testing.T) {
	c, err := catalog.New([]catalog.CardDefinition{
		{Name: "A", Rarity: catalog.Common, CatalogNumber: 1},
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	if _, err := New(c, nil); !errors.Is(err, ErrEmptyTier) {
		t.Fatalf("expected ErrEmptyTier, got %v", err)
	}

	// A tier without cards is fine when it carries no weight.
	e, err := NewWithWeights(c, map[catalog.Rarity]float64{catalog.Common: 1.0}, nil)
	if err != nil {
		t.Fatalf("NewWithWeights failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if got := e.Draw(); got.CatalogNumber != 1 {
			t.Fatalf("unexpected card %v", got)
		}
	}
}

func TestInvalidWeights(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		name    string
		weights map[catalog.Rarity]float64
	}{
		{"sum below one", map[catalog.Rarity]float64{catalog.Common: 0.5, catalog.Rare: 0.4}},
		{"negative", map[catalog.Rarity]float64{catalog.Common: 1.5, catalog.Rare: -0.5}},
		{"unknown tier", map[catalog.Rarity]float64{catalog.Common: 1.0, catalog.Rarity(9): 0}},
		{"nan", map[catalog.Rarity]float64{catalog.Common: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWithWeights(c, tt.weights, nil); !errors.Is(err, ErrInvalidWeights) {
				t.Errorf("expected ErrInvalidWeights, got %v", err)
			}
		})
	}
}

// fixedSource replays a fixed uniform value so tier boundaries can be probed.
type fixedSource struct{ u float64 }

func (f fixedSource) Float64() float64 { return f.u }
func (f fixedSource) IntN(int) int     { return 0 }

func TestPickTierBoundaries(t *testing.T) {
	c := testCatalog(t)
	tests := []struct {
		u    float64
		want catalog.Rarity
	}{
		{0, catalog.Common},
		{0.6999, catalog.Common},
		{0.70, catalog.Rare},
		{0.9499, catalog.Rare},
		{0.9501, catalog.Epic},
		{0.9899, catalog.Epic},
		{0.9901, catalog.Legendary},
		{0.9989, catalog.Legendary},
		{0.9995, catalog.UltraRare},
		{0.99999999, catalog.UltraRare},
	}

	for _, tt := range tests {
		e, err := New(c, fixedSource{u: tt.u})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if got := e.Draw().Rarity; got != tt.want {
			t.Errorf("u=%v drew %s, want %s", tt.u, got, tt.want)
		}
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	e, err := New(testCatalog(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for r, w := range e.Weights() {
		if math.Abs(w-r.DrawWeight()) > 1e-9 {
			t.Errorf("weight of %s = %v, want %v", r, w, r.DrawWeight())
		}
	}
}
