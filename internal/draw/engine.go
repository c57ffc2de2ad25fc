// Package draw implements the rarity-weighted booster draw.
package draw

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 1e-9

var (
	// ErrInvalidWeights is returned when weights are negative, unknown, or do not sum to 1.
	ErrInvalidWeights = errors.New("invalid rarity weights")

	// ErrEmptyTier is returned when a tier with non-zero weight has no catalog cards.
	ErrEmptyTier = errors.New("weighted rarity tier has no cards")
)

// Source is the random source consumed by the engine. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Engine draws one card per call: a tier by weighted choice, then a card uniformly
// within that tier. It is safe for concurrent use.
type Engine struct {
	tiers []catalog.Rarity
	cdf   []float64
	cards map[catalog.Rarity][]catalog.CardDefinition

	mu  sync.Mutex
	rng Source
}

// New builds an engine over the catalog using the canonical rarity weights.
func New(c *catalog.Catalog, rng Source) (*Engine, error) {
	return NewWithWeights(c, catalog.DrawWeights(), rng)
}

// NewSeeded builds an engine with a deterministic PCG source.
func NewSeeded(c *catalog.Catalog, seed uint64) (*Engine, error) {
	return New(c, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewWithWeights builds an engine with explicit tier weights. Zero-weight tiers are
// ignored; a weighted tier without cards fails fast with ErrEmptyTier.
func NewWithWeights(c *catalog.Catalog, weights map[catalog.Rarity]float64, rng Source) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e := &Engine{
		cards: make(map[catalog.Rarity][]catalog.CardDefinition),
		rng:   rng,
	}

	var total float64
	for _, r := range catalog.Rarities() {
		w := weights[r]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: %s has weight %v", ErrInvalidWeights, r, w)
		}
		if w == 0 {
			continue
		}
		cards := c.ByRarity(r)
		if len(cards) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyTier, r)
		}
		total += w
		e.tiers = append(e.tiers, r)
		e.cdf = append(e.cdf, total)
		e.cards[r] = cards
	}

	for r := range weights {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown tier %d", ErrInvalidWeights, int(r))
		}
	}
	if math.Abs(total-1.0) > weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, total)
	}

	// Pin the last boundary so rounding in the running sum can never leave a gap.
	e.cdf[len(e.cdf)-1] = 1.0

	return e, nil
}

// Draw returns one random card.
func (e *Engine) Draw() catalog.CardDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()

	tier := e.pickTier(e.rng.Float64())
	cards := e.cards[tier]
	return cards[e.rng.IntN(len(cards))]
}

// pickTier maps u in [0,1) onto a tier by binary search of the cumulative weights.
func (e *Engine) pickTier(u float64) catalog.Rarity {
	i := sort.Search(len(e.cdf), func(i int) bool { return u < e.cdf[i] })
	if i == len(e.cdf) {
		i = len(e.cdf) - 1
	}
	return e.tiers[i]
}

// Weights returns the configured weight of each drawable tier.
func (e *Engine) Weights() map[catalog.Rarity]float64 {
	weights := make(map[catalog.Rarity]float64, len(e.tiers))
	prev := 0.0
	for i, r := range e.tiers {
		weights[r] = e.cdf[i] - prev
		prev = e.cdf[i]
	}
	return weights
}
