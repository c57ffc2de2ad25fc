package catalog

import (
	"fmt"
	"strings"
)

// Rarity is the probability class of a card. Higher tiers are rarer and sell for more.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Epic
	Legendary
	UltraRare
)

// rarityInfo holds the fixed economy parameters of a tier.
type rarityInfo struct {
	name       string
	sortOrder  int
	drawWeight float64
	sellValue  int
}

// rarityTable is the single canonical rarity table. Draw weights sum to 1.0 and sell
// values strictly increase with rank.
var rarityTable = [...]rarityInfo{
	Common:    {name: "common", sortOrder: 0, drawWeight: 0.70, sellValue: 5},
	Rare:      {name: "rare", sortOrder: 1, drawWeight: 0.25, sellValue: 20},
	Epic:      {name: "epic", sortOrder: 2, drawWeight: 0.04, sellValue: 75},
	Legendary: {name: "legendary", sortOrder: 3, drawWeight: 0.009, sellValue: 250},
	UltraRare: {name: "ultra_rare", sortOrder: 4, drawWeight: 0.001, sellValue: 1000},
}

// Rarities returns every tier in ascending sort order.
func Rarities() []Rarity {
	return []Rarity{Common, Rare, Epic, Legendary, UltraRare}
}

// Valid reports whether r is a known tier.
func (r Rarity) Valid() bool {
	return r >= Common && r <= UltraRare
}

// String returns the canonical persisted spelling of the tier.
func (r Rarity) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rarity(%d)", int(r))
	}
	return rarityTable[r].name
}

// SortOrder is the ascending display rank of the tier.
func (r Rarity) SortOrder() int {
	if !r.Valid() {
		return -1
	}
	return rarityTable[r].sortOrder
}

// DrawWeight is the probability mass of the tier in a booster draw.
func (r Rarity) DrawWeight() float64 {
	if !r.Valid() {
		return 0
	}
	return rarityTable[r].drawWeight
}

// SellValue is the currency granted when one copy of a card of this tier is sold.
func (r Rarity) SellValue() int {
	if !r.Valid() {
		return 0
	}
	return rarityTable[r].sellValue
}

// DrawWeights returns the configured weight of every tier keyed by rarity.
func DrawWeights() map[Rarity]float64 {
	weights := make(map[Rarity]float64, len(rarityTable))
	for _, r := range Rarities() {
		weights[r] = r.DrawWeight()
	}
	return weights
}

// MarshalText implements encoding.TextMarshaler.
func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRarity parses a tier name. Besides the canonical spellings it accepts the
// legacy save-file spellings, which used display names and the short "UR" form.
func ParseRarity(s string) (Rarity, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	switch key {
	case "common", "c":
		return Common, nil
	case "rare", "r":
		return Rare, nil
	case "epic", "e":
		return Epic, nil
	case "legendary", "legend", "l":
		return Legendary, nil
	case "ultra_rare", "ultrarare", "ur":
		return UltraRare, nil
	}
	return Common, fmt.Errorf("unknown rarity %q", s)
}
