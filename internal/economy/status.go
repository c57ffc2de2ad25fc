package economy

import (
	"context"
	"time"

	"github.com/ramonehamilton/booster-companion/internal/booster"
	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/collection"
	"github.com/ramonehamilton/booster-companion/internal/milestone"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// Status is a read-only view of the economy at one instant.
type Status struct {
	FreeBoosters   int           `json:"freeBoosters"`
	Currency       int           `json:"currency"`
	Phase          string        `json:"phase"`
	Remaining      time.Duration `json:"remaining"`
	NextGrantAt    time.Time     `json:"nextGrantAt"`
	SkipCost       int           `json:"skipCost"`
	Owned          int           `json:"owned"`
	TotalCopies    int           `json:"totalCopies"`
	CatalogSize    int           `json:"catalogSize"`
	Percent        int           `json:"percent"`
	Milestones     []int         `json:"milestones"`
	TamperDetected bool          `json:"tamperDetected"`
	At             time.Time     `json:"at"`
}

// TierProgress is completion within one rarity tier.
type TierProgress struct {
	Rarity catalog.Rarity `json:"rarity"`
	Owned  int            `json:"owned"`
	Total  int            `json:"total"`
}

// Progress is overall and per-tier completion.
type Progress struct {
	Owned   int            `json:"owned"`
	Total   int            `json:"total"`
	Percent int            `json:"percent"`
	Tiers   []TierProgress `json:"tiers"`

	// Thresholds are the milestone percentages; Reached are those already fired.
	Thresholds []int `json:"thresholds"`
	Reached    []int `json:"reached"`
}

// Status reports the current state without refreshing the timer.
func (s *Service) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return Status{}, ErrNotLoaded
	}

	now := s.clock.Now()
	phase := s.timer.Phase(now)
	st := Status{
		FreeBoosters:   s.timer.FreeBoosters(),
		Currency:       s.ledger.Currency(),
		Phase:          phase.String(),
		Remaining:      s.timer.Remaining(now),
		NextGrantAt:    s.timer.NextGrantAt(now),
		SkipCost:       s.timer.SkipCost(now),
		Owned:          s.ledger.UniqueCount(),
		TotalCopies:    s.ledger.TotalCount(),
		CatalogSize:    s.cat.Size(),
		Percent:        milestone.Percent(s.ledger.UniqueCount(), s.cat.Size()),
		Milestones:     s.milestones.Triggered(),
		TamperDetected: s.tampered,
		At:             now,
	}
	if phase == booster.BoosterReady {
		st.SkipCost = 0
	}
	return st, nil
}

// Collection returns the owned cards ordered by rarity, then catalog number.
func (s *Service) Collection() ([]collection.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.ledger.Entries(), nil
}

// Owned reports how many copies of a card are held.
func (s *Service) Owned(catalogNumber int) (int, error) {
	card, ok := s.cat.ByNumber(catalogNumber)
	if !ok {
		return 0, ErrUnknownCard
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return s.ledger.Count(card), nil
}

// Progress reports completion overall and per rarity tier.
func (s *Service) Progress() (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return Progress{}, ErrNotLoaded
	}

	owned := make(map[catalog.Rarity]int)
	for _, e := range s.ledger.Entries() {
		owned[e.Card.Rarity]++
	}
	totals := s.cat.CountByRarity()

	p := Progress{
		Owned:   s.ledger.UniqueCount(),
		Total:   s.cat.Size(),
		Percent: milestone.Percent(s.ledger.UniqueCount(), s.cat.Size()),

		Thresholds: s.milestones.Thresholds(),
		Reached:    s.milestones.Triggered(),
	}
	for _, r := range catalog.Rarities() {
		if totals[r] == 0 {
			continue
		}
		p.Tiers = append(p.Tiers, TierProgress{Rarity: r, Owned: owned[r], Total: totals[r]})
	}
	return p, nil
}

// History returns the newest audit rows.
func (s *Service) History(ctx context.Context, limit int) ([]*storage.EconomyChange, error) {
	return s.store.History.GetRecentChanges(ctx, limit)
}

// Purchases returns the newest settled purchases.
func (s *Service) Purchases(ctx context.Context, limit int) ([]*storage.PurchaseEntry, error) {
	return s.store.Purchases.List(ctx, limit)
}

// Purchase looks up one settled transaction.
func (s *Service) Purchase(ctx context.Context, transactionID string) (*storage.PurchaseEntry, error) {
	return s.store.Purchases.Get(ctx, transactionID)
}
