// Package catalog holds the static card catalog and the canonical rarity table.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"
)

//go:embed data/cards.toml
var embeddedCards []byte

// Catalog is the immutable set of obtainable cards. It is safe for concurrent use.
type Catalog struct {
	cards    []CardDefinition
	byNumber map[int]CardDefinition
	byRarity map[Rarity][]CardDefinition
	byName   map[nameKey]CardDefinition
}

type nameKey struct {
	name   string
	rarity Rarity
}

type catalogFile struct {
	Cards []CardDefinition `toml:"cards"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded at build time.
// The embedded data is validated by tests, so a failure here is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCards)
		if err != nil {
			panic(fmt.Sprintf("embedded card catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes a TOML catalog document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Cards)
}

// New builds a catalog from card definitions. Catalog numbers must be unique and
// contiguous from 1, names non-empty, and rarities known.
func New(cards []CardDefinition) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		cards:    make([]CardDefinition, len(cards)),
		byNumber: make(map[int]CardDefinition, len(cards)),
		byRarity: make(map[Rarity][]CardDefinition),
		byName:   make(map[nameKey]CardDefinition, len(cards)),
	}
	copy(c.cards, cards)
	sort.Slice(c.cards, func(i, j int) bool {
		return c.cards[i].CatalogNumber < c.cards[j].CatalogNumber
	})

	for i, card := range c.cards {
		if strings.TrimSpace(card.Name) == "" {
			return nil, fmt.Errorf("card #%d has no name", card.CatalogNumber)
		}
		if !card.Rarity.Valid() {
			return nil, fmt.Errorf("card %q has invalid rarity", card.Name)
		}
		if _, dup := c.byNumber[card.CatalogNumber]; dup {
			return nil, fmt.Errorf("duplicate catalog number %d", card.CatalogNumber)
		}
		if card.CatalogNumber != i+1 {
			return nil, fmt.Errorf("catalog numbers must be contiguous from 1: expected %d, got %d", i+1, card.CatalogNumber)
		}
		key := nameKey{name: strings.ToLower(card.Name), rarity: card.Rarity}
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate card %q with rarity %s", card.Name, card.Rarity)
		}

		c.byNumber[card.CatalogNumber] = card
		c.byRarity[card.Rarity] = append(c.byRarity[card.Rarity], card)
		c.byName[key] = card
	}

	return c, nil
}

// All returns every card ordered by catalog number. The slice is a copy.
func (c *Catalog) All() []CardDefinition {
	out := make([]CardDefinition, len(c.cards))
	copy(out, c.cards)
	return out
}

// Size returns the number of cards in the catalog.
func (c *Catalog) Size() int {
	return len(c.cards)
}

// ByNumber returns the card with the given catalog number.
func (c *Catalog) ByNumber(number int) (CardDefinition, bool) {
	card, ok := c.byNumber[number]
	return card, ok
}

// ByRarity returns the cards of one tier ordered by catalog number.
func (c *Catalog) ByRarity(r Rarity) []CardDefinition {
	cards := c.byRarity[r]
	out := make([]CardDefinition, len(cards))
	copy(out, cards)
	return out
}

// CountByRarity returns how many catalog cards belong to each tier.
func (c *Catalog) CountByRarity() map[Rarity]int {
	counts := make(map[Rarity]int, len(c.byRarity))
	for r, cards := range c.byRarity {
		counts[r] = len(cards)
	}
	return counts
}

// Lookup finds a card by name (case-insensitive) and rarity. Legacy save files
// identify cards this way.
func (c *Catalog) Lookup(name string, r Rarity) (CardDefinition, bool) {
	card, ok := c.byName[nameKey{name: strings.ToLower(strings.TrimSpace(name)), rarity: r}]
	return card, ok
}

// cardNames adapts the catalog to fuzzy.Source.
type cardNames []CardDefinition

func (n cardNames) String(i int) string { return n[i].Name }
func (n cardNames) Len() int            { return len(n) }

// Search returns cards whose names fuzzy-match the query, best match first.
// An empty query returns the whole catalog.
func (c *Catalog) Search(query string) []CardDefinition {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.All()
	}

	matches := fuzzy.FindFrom(query, cardNames(c.cards))
	out := make([]CardDefinition, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.cards[m.Index])
	}
	return out
}
