package collection

import (
	"math/rand/v2"
	"testing"

	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

func TestAddCardCountsSumToCalls(t *testing.T) {
	cat := catalog.Default()
	cards := cat.All()
	rng := rand.New(rand.NewPCG(1, 2))

	l := NewLedger()
	const calls = 500
	for i := 0; i < calls; i++ {
		l.AddCard(cards[rng.IntN(len(cards))])
	}

	if got := l.TotalCount(); got != calls {
		t.Errorf("TotalCount() = %d, want %d", got, calls)
	}

	sum := 0
	for _, e := range l.Entries() {
		if e.Count < 1 {
			t.Errorf("entry %v has count %d", e.Card, e.Count)
		}
		sum += e.Count
	}
	if sum != calls {
		t.Errorf("sum of entry counts = %d, want %d", sum, calls)
	}
}

func TestAddCardReportsNew(t *testing.T) {
	card, _ := catalog.Default().ByNumber(1)
	l := NewLedger()

	if !l.IsNewCard(card) {
		t.Fatal("card should be new in an empty ledger")
	}
	if !l.AddCard(card) {
		t.Error("first AddCard should report new")
	}
	if l.AddCard(card) {
		t.Error("second AddCard should not report new")
	}
	if l.IsNewCard(card) {
		t.Error("card should no longer be new")
	}
	if got := l.Count(card); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestSellNeverOwnedCard(t *testing.T) {
	cat := catalog.Default()
	owned, _ := cat.ByNumber(1)
	other, _ := cat.ByNumber(2)

	l := NewLedger()
	l.AddCard(owned)
	_ = l.Credit(10)

	if l.SellCard(other) {
		t.Fatal("SellCard on never-owned card returned true")
	}
	if l.Currency() != 10 {
		t.Errorf("currency changed to %d", l.Currency())
	}
	if l.UniqueCount() != 1 || l.Count(owned) != 1 {
		t.Error("entries changed after failed sell")
	}
}

func TestSellCreditsRarityValueAndRemovesAtZero(t *testing.T) {
	cat := catalog.Default()
	epic := cat.ByRarity(catalog.Epic)[0]

	l := NewLedger()
	l.AddCard(epic)
	l.AddCard(epic)

	for i := 1; i <= 2; i++ {
		before := l.Currency()
		if !l.SellCard(epic) {
			t.Fatalf("sell %d failed", i)
		}
		if got := l.Currency() - before; got != TotalCoinValue(catalog.Epic) {
			t.Errorf("sell %d credited %d, want %d", i, got, TotalCoinValue(catalog.Epic))
		}
	}

	if !l.IsNewCard(epic) {
		t.Error("entry should be removed once count reaches zero")
	}
	if l.SellCard(epic) {
		t.Error("selling a fully sold card should fail")
	}
}

func TestAddCardDoesNotTouchCurrency(t *testing.T) {
	l := NewLedger()
	_ = l.Credit(42)
	for _, card := range catalog.Default().All() {
		l.AddCard(card)
	}
	if l.Currency() != 42 {
		t.Errorf("currency = %d, want 42", l.Currency())
	}
}

func TestSellDuplicates(t *testing.T) {
	cat := catalog.Default()
	common := cat.ByRarity(catalog.Common)[0]
	rare := cat.ByRarity(catalog.Rare)[0]
	epic := cat.ByRarity(catalog.Epic)[0]

	l := NewLedger()
	for i := 0; i < 3; i++ {
		l.AddCard(common)
	}
	l.AddCard(rare)
	l.AddCard(rare)
	l.AddCard(epic)

	sold, earned := l.SellDuplicates()
	if sold != 3 {
		t.Errorf("sold = %d, want 3", sold)
	}
	want := 2*catalog.Common.SellValue() + catalog.Rare.SellValue()
	if earned != want || l.Currency() != want {
		t.Errorf("earned = %d, currency = %d, want %d", earned, l.Currency(), want)
	}
	if l.UniqueCount() != 3 || l.TotalCount() != 3 {
		t.Errorf("expected one copy of each card, got unique=%d total=%d", l.UniqueCount(), l.TotalCount())
	}
}

func TestDebit(t *testing.T) {
	l := NewLedger()
	_ = l.Credit(100)

	if l.Debit(101) {
		t.Error("debit beyond balance should fail")
	}
	if l.Debit(-1) {
		t.Error("negative debit should fail")
	}
	if !l.Debit(100) || l.Currency() != 0 {
		t.Errorf("debit of full balance failed, currency=%d", l.Currency())
	}
	if err := l.Credit(-5); err == nil {
		t.Error("negative credit should fail")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	card, _ := catalog.Default().ByNumber(3)
	l := NewLedger()
	l.AddCard(card)

	c := l.Clone()
	c.AddCard(card)
	_ = c.Credit(50)

	if l.Count(card) != 1 || l.Currency() != 0 {
		t.Error("mutating the clone changed the original")
	}
}

func TestEntriesOrder(t *testing.T) {
	cat := catalog.Default()
	l := NewLedger()
	l.AddCard(cat.ByRarity(catalog.UltraRare)[0])
	l.AddCard(cat.ByRarity(catalog.Common)[1])
	l.AddCard(cat.ByRarity(catalog.Common)[0])
	l.AddCard(cat.ByRarity(catalog.Rare)[0])

	entries := l.Entries()
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1].Card, entries[i].Card
		if prev.Rarity.SortOrder() > cur.Rarity.SortOrder() ||
			(prev.Rarity == cur.Rarity && prev.CatalogNumber > cur.CatalogNumber) {
			t.Errorf("entries out of order at %d: %v before %v", i, prev, cur)
		}
	}
}
