// Package collection implements the player's ledger of owned cards and currency,
// together with its versioned persisted record.
package collection

import (
	"fmt"
	"sort"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

// Entry is one owned card and how many copies are held. Count is always >= 1.
type Entry struct {
	Card  catalog.CardDefinition `json:"card"`
	Count int                    `json:"count"`
}

// Ledger holds per-card ownership counts and the currency balance.
// Entries are keyed by catalog number. A Ledger is not safe for concurrent use;
// the economy service owns it as the single writer.
type Ledger struct {
	entries  map[int]*Entry
	currency int
}

// NewLedger returns an empty ledger with zero currency.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int]*Entry)}
}

// TotalCoinValue is the currency granted for selling one card of the given tier.
func TotalCoinValue(r catalog.Rarity) int {
	return r.SellValue()
}

// IsNewCard reports whether no copy of the card is owned.
func (l *Ledger) IsNewCard(card catalog.CardDefinition) bool {
	_, ok := l.entries[card.CatalogNumber]
	return !ok
}

// AddCard records one more copy of the card and reports whether it was new.
func (l *Ledger) AddCard(card catalog.CardDefinition) bool {
	if e, ok := l.entries[card.CatalogNumber]; ok {
		e.Count++
		return false
	}
	l.entries[card.CatalogNumber] = &Entry{Card: card, Count: 1}
	return true
}

// SellCard sells one copy of the card. It returns false without changing anything
// when the card is not owned.
func (l *Ledger) SellCard(card catalog.CardDefinition) bool {
	e, ok := l.entries[card.CatalogNumber]
	if !ok {
		return false
	}

	l.currency += TotalCoinValue(e.Card.Rarity)
	e.Count--
	if e.Count <= 0 {
		delete(l.entries, card.CatalogNumber)
	}
	return true
}

// SellDuplicates sells every copy beyond the first of each owned card.
// It returns the number of copies sold and the currency earned.
func (l *Ledger) SellDuplicates() (sold, earned int) {
	for _, e := range l.entries {
		if e.Count <= 1 {
			continue
		}
		extra := e.Count - 1
		value := extra * TotalCoinValue(e.Card.Rarity)
		e.Count = 1
		l.currency += value
		sold += extra
		earned += value
	}
	return sold, earned
}

// Count returns how many copies of the card are owned.
func (l *Ledger) Count(card catalog.CardDefinition) int {
	if e, ok := l.entries[card.CatalogNumber]; ok {
		return e.Count
	}
	return 0
}

// Currency returns the currency balance.
func (l *Ledger) Currency() int {
	return l.currency
}

// Credit adds currency. Negative amounts are rejected.
func (l *Ledger) Credit(amount int) error {
	if amount < 0 {
		return fmt.Errorf("cannot credit negative amount %d", amount)
	}
	l.currency += amount
	return nil
}

// Debit removes currency if the balance covers it and reports whether it did.
func (l *Ledger) Debit(amount int) bool {
	if amount < 0 || amount > l.currency {
		return false
	}
	l.currency -= amount
	return true
}

// UniqueCount is the number of distinct cards owned.
func (l *Ledger) UniqueCount() int {
	return len(l.entries)
}

// TotalCount is the number of copies owned across all cards.
func (l *Ledger) TotalCount() int {
	total := 0
	for _, e := range l.entries {
		total += e.Count
	}
	return total
}

// Entries returns a copy of all entries ordered by rarity sort order, then
// catalog number.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].Card.Rarity.SortOrder(), out[j].Card.Rarity.SortOrder()
		if oi != oj {
			return oi < oj
		}
		return out[i].Card.CatalogNumber < out[j].Card.CatalogNumber
	})
	return out
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		entries:  make(map[int]*Entry, len(l.entries)),
		currency: l.currency,
	}
	for k, e := range l.entries {
		cp := *e
		c.entries[k] = &cp
	}
	return c
}

// put inserts or merges an entry while decoding. count must be >= 1.
func (l *Ledger) put(card catalog.CardDefinition, count int) {
	if e, ok := l.entries[card.CatalogNumber]; ok {
		e.Count += count
		return
	}
	l.entries[card.CatalogNumber] = &Entry{Card: card, Count: count}
}
