package draw

import "github.com/ramonehamilton/booster-companion/internal/catalog"

// TierStat compares the configured weight of a tier with its observed frequency.
type TierStat struct {
	Rarity   catalog.Rarity `json:"rarity"`
	Weight   float64        `json:"weight"`
	Count    int            `json:"count"`
	Observed float64        `json:"observed"`
}

// Distribution is the result of a simulation run.
type Distribution struct {
	Draws int        `json:"draws"`
	Tiers []TierStat `json:"tiers"`
}

// Simulate performs n draws and reports observed tier frequencies.
func (e *Engine) Simulate(n int) Distribution {
	counts := make(map[catalog.Rarity]int)
	for i := 0; i < n; i++ {
		counts[e.Draw().Rarity]++
	}

	weights := e.Weights()
	dist := Distribution{Draws: n}
	for _, r := range catalog.Rarities() {
		stat := TierStat{Rarity: r, Weight: weights[r], Count: counts[r]}
		if n > 0 {
			stat.Observed = float64(counts[r]) / float64(n)
		}
		dist.Tiers = append(dist.Tiers, stat)
	}
	return dist
}
