package catalog

import (
	"math"
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := Parse(embeddedCards)
	if err != nil {
		t.Fatalf("embedded catalog failed to parse: %v", err)
	}

	if c.Size() == 0 {
		t.Fatal("expected a non-empty catalog")
	}

	for _, r := range Rarities() {
		if r.DrawWeight() > 0 && len(c.ByRarity(r)) == 0 {
			t.Errorf("tier %s has weight %v but no cards", r, r.DrawWeight())
		}
	}
}

func TestRarityTableInvariants(t *testing.T) {
	var sum float64
	prev := -1
	for _, r := range Rarities() {
		sum += r.DrawWeight()
		if r.SellValue() <= prev {
			t.Errorf("sell value of %s (%d) does not exceed previous tier (%d)", r, r.SellValue(), prev)
		}
		prev = r.SellValue()
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("draw weights sum to %v, want 1.0", sum)
	}
}

func TestParseRarity(t *testing.T) {
	tests := []struct {
		in   string
		want Rarity
	}{
		{"common", Common},
		{"Rare", Rare},
		{" EPIC ", Epic},
		{"Legendary", Legendary},
		{"ultra_rare", UltraRare},
		{"Ultra Rare", UltraRare},
		{"ultra-rare", UltraRare},
		{"UR", UltraRare},
	}

	for _, tt := range tests {
		got, err := ParseRarity(tt.in)
		if err != nil {
			t.Errorf("ParseRarity(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRarity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseRarity("mythic"); err == nil {
		t.Error("expected error for unknown rarity")
	}
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name  string
		cards []CardDefinition
	}{
		{"empty", nil},
		{"duplicate number", []CardDefinition{{Name: "A", CatalogNumber: 1}, {Name: "B", CatalogNumber: 1}}},
		{"gap", []CardDefinition{{Name: "A", CatalogNumber: 1}, {Name: "B", CatalogNumber: 3}}},
		{"missing name", []CardDefinition{{Name: " ", CatalogNumber: 1}}},
		{"bad rarity", []CardDefinition{{Name: "A", Rarity: Rarity(42), CatalogNumber: 1}}},
		{"duplicate name and rarity", []CardDefinition{{Name: "A", CatalogNumber: 1}, {Name: "a", CatalogNumber: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cards); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLookupAndByNumber(t *testing.T) {
	c, err := New([]CardDefinition{
		{Name: "Ember Sprite", Rarity: Common, CatalogNumber: 1},
		{Name: "Ember Sprite", Rarity: Epic, CatalogNumber: 2},
		{Name: "Void Empress", Rarity: UltraRare, CatalogNumber: 3},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	card, ok := c.Lookup("ember sprite", Epic)
	if !ok || card.CatalogNumber != 2 {
		t.Errorf("Lookup(ember sprite, epic) = %v, %v", card, ok)
	}

	if _, ok := c.Lookup("Void Empress", Common); ok {
		t.Error("Lookup matched the wrong rarity")
	}

	card, ok = c.ByNumber(3)
	if !ok || card.Name != "Void Empress" {
		t.Errorf("ByNumber(3) = %v, %v", card, ok)
	}

	counts := c.CountByRarity()
	if counts[Common] != 1 || counts[Epic] != 1 || counts[UltraRare] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestSearch(t *testing.T) {
	c := Default()

	results := c.Search("wyrm")
	if len(results) == 0 {
		t.Fatal("expected at least one match for 'wyrm'")
	}
	if results[0].Name != "Celestial Wyrm" {
		t.Errorf("best match = %q, want Celestial Wyrm", results[0].Name)
	}

	if got := len(c.Search("")); got != c.Size() {
		t.Errorf("empty search returned %d cards, want %d", got, c.Size())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Name = "mutated"

	first, _ := c.ByNumber(1)
	if first.Name == "mutated" {
		t.Error("All() exposed internal storage")
	}
}
