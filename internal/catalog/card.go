package catalog

import "fmt"

// CardDefinition is an immutable catalog entry.
type CardDefinition struct {
	Name          string `toml:"name" json:"name"`
	Rarity        Rarity `toml:"rarity" json:"rarity"`
	CatalogNumber int    `toml:"number" json:"catalogNumber"`
}

// SellValue is the currency one copy of the card sells for.
func (c CardDefinition) SellValue() int {
	return c.Rarity.SellValue()
}

func (c CardDefinition) String() string {
	return fmt.Sprintf("#%03d %s (%s)", c.CatalogNumber, c.Name, c.Rarity)
}
