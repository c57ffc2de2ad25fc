package economy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ramonehamilton/booster-companion/internal/booster"
	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/events"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// OpenResult is one opened booster.
type OpenResult struct {
	Card         catalog.CardDefinition `json:"card"`
	IsNew        bool                   `json:"isNew"`
	FreeBoosters int                    `json:"freeBoosters"`
	Milestones   []int                  `json:"milestones,omitempty"`
}

// SaleResult is the outcome of selling cards.
type SaleResult struct {
	Sold      int `json:"sold"`
	Earned    int `json:"earned"`
	Remaining int `json:"remaining"`
	Currency  int `json:"currency"`
}

// SkipResult is the outcome of paying to skip the cooldown.
type SkipResult struct {
	Cost         int `json:"cost"`
	FreeBoosters int `json:"freeBoosters"`
	Currency     int `json:"currency"`
}

// Settlement is the outcome of applying a verified purchase.
type Settlement struct {
	TransactionID  string           `json:"transactionId"`
	Product        purchase.Product `json:"product"`
	AlreadySettled bool             `json:"alreadySettled"`
	Currency       int              `json:"currency"`
	FreeBoosters   int              `json:"freeBoosters"`
}

// Refresh applies elapsed cooldown periods. Concurrent callers are serialized
// and the anchor moves with every grant, so the same elapsed time is never
// granted twice.
func (s *Service) Refresh(ctx context.Context) (booster.RefreshResult, error) {
	var res booster.RefreshResult
	err := s.apply(ctx, func(b *batch) error {
		var err error
		res, err = s.refreshLocked(ctx, b)
		return err
	})
	return res, err
}

// refreshLocked commits only when the timer changed.
func (s *Service) refreshLocked(ctx context.Context, b *batch) (booster.RefreshResult, error) {
	m := s.begin(sourceTimer)
	res := s.refreshInto(ctx, m)
	if !res.Changed {
		return res, nil
	}
	if err := s.commit(ctx, b, m); err != nil {
		return res, err
	}
	if res.TamperDetected {
		s.tampered = true
	}
	return res, nil
}

// OpenBooster consumes a free booster and adds one drawn card to the collection.
func (s *Service) OpenBooster(ctx context.Context) (OpenResult, error) {
	var out OpenResult
	err := s.apply(ctx, func(b *batch) error {
		if _, err := s.refreshLocked(ctx, b); err != nil {
			return err
		}
		var err error
		out, err = s.openLocked(ctx, b)
		return err
	})
	return out, err
}

// OpenBoosters opens up to n boosters. Each is committed on its own; when the
// supply runs out the boosters opened so far are returned with ErrNoBoosters.
func (s *Service) OpenBoosters(ctx context.Context, n int) ([]OpenResult, error) {
	if n <= 0 {
		return nil, ErrInvalidAmount
	}
	var out []OpenResult
	err := s.apply(ctx, func(b *batch) error {
		if _, err := s.refreshLocked(ctx, b); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			res, err := s.openLocked(ctx, b)
			if err != nil {
				return err
			}
			out = append(out, res)
		}
		return nil
	})
	return out, err
}

func (s *Service) openLocked(ctx context.Context, b *batch) (OpenResult, error) {
	m := s.begin(sourceOpen)
	if !m.timer.UseBooster() {
		return OpenResult{}, ErrNoBoosters
	}

	card := s.engine.Draw()
	isNew := m.ledger.AddCard(card)
	m.emit(ctx, events.TypeBoosterOpened, events.BoosterOpenedEvent{
		Card: events.DrawnCard{
			CatalogNumber: card.CatalogNumber,
			Name:          card.Name,
			Rarity:        card.Rarity.String(),
			IsNew:         isNew,
		},
		FreeBoosters: m.timer.FreeBoosters(),
	})

	fired := s.checkMilestones(ctx, m)

	if err := s.commit(ctx, b, m); err != nil {
		return OpenResult{}, err
	}
	return OpenResult{
		Card:         card,
		IsNew:        isNew,
		FreeBoosters: s.timer.FreeBoosters(),
		Milestones:   fired,
	}, nil
}

// SellCard sells one copy of the card with the given catalog number.
func (s *Service) SellCard(ctx context.Context, catalogNumber int) (SaleResult, error) {
	card, ok := s.cat.ByNumber(catalogNumber)
	if !ok {
		return SaleResult{}, fmt.Errorf("%w: %d", ErrUnknownCard, catalogNumber)
	}

	var out SaleResult
	err := s.apply(ctx, func(b *batch) error {
		m := s.begin(sourceSell)
		if !m.ledger.SellCard(card) {
			return ErrCardNotOwned
		}
		earned := card.SellValue()
		remaining := m.ledger.Count(card)
		m.emit(ctx, events.TypeCardSold, events.CardSoldEvent{
			CatalogNumber: card.CatalogNumber,
			Name:          card.Name,
			Earned:        earned,
			Remaining:     remaining,
		})
		if err := s.commit(ctx, b, m); err != nil {
			return err
		}
		out = SaleResult{Sold: 1, Earned: earned, Remaining: remaining, Currency: s.ledger.Currency()}
		return nil
	})
	return out, err
}

// SellDuplicates sells every copy beyond the first of each owned card.
func (s *Service) SellDuplicates(ctx context.Context) (SaleResult, error) {
	var out SaleResult
	err := s.apply(ctx, func(b *batch) error {
		m := s.begin(sourceSellDupes)
		sold, earned := m.ledger.SellDuplicates()
		if sold == 0 {
			out = SaleResult{Currency: s.ledger.Currency()}
			return nil
		}
		m.emit(ctx, events.TypeDuplicatesSold, events.DuplicatesSoldEvent{Sold: sold, Earned: earned})
		if err := s.commit(ctx, b, m); err != nil {
			return err
		}
		out = SaleResult{Sold: sold, Earned: earned, Currency: s.ledger.Currency()}
		return nil
	})
	return out, err
}

// SkipWait pays to finish the running cooldown immediately.
func (s *Service) SkipWait(ctx context.Context) (SkipResult, error) {
	var out SkipResult
	err := s.apply(ctx, func(b *batch) error {
		if _, err := s.refreshLocked(ctx, b); err != nil {
			return err
		}

		m := s.begin(sourceSkip)
		cost := m.timer.SkipCost(m.now)
		if cost == 0 {
			return ErrNothingToSkip
		}
		if !m.ledger.Debit(cost) {
			return fmt.Errorf("%w: skip costs %d, balance %d", ErrInsufficientCurrency, cost, m.ledger.Currency())
		}
		m.timer.CompleteCooldown(m.now)
		m.emit(ctx, events.TypeCooldownSkipped, events.CooldownSkippedEvent{
			Cost:         cost,
			FreeBoosters: m.timer.FreeBoosters(),
		})
		if err := s.commit(ctx, b, m); err != nil {
			return err
		}
		out = SkipResult{Cost: cost, FreeBoosters: s.timer.FreeBoosters(), Currency: s.ledger.Currency()}
		return nil
	})
	return out, err
}

// ApplyBoosterPurchase debits cost and credits quantity boosters as one change.
func (s *Service) ApplyBoosterPurchase(ctx context.Context, quantity, cost int) error {
	return s.apply(ctx, func(b *batch) error {
		return s.buyBoostersLocked(ctx, b, quantity, cost, nil)
	})
}

// ApplyCurrencyPurchase credits amount. Verification happens before this call.
func (s *Service) ApplyCurrencyPurchase(ctx context.Context, amount int) error {
	return s.apply(ctx, func(b *batch) error {
		return s.buyCurrencyLocked(ctx, b, amount, nil)
	})
}

func (s *Service) buyBoostersLocked(ctx context.Context, b *batch, quantity, cost int, journal func(context.Context, *storage.Tx) error) error {
	if quantity <= 0 || cost < 0 {
		return ErrInvalidAmount
	}
	m := s.begin(sourceBuyBooster)
	if !m.ledger.Debit(cost) {
		return fmt.Errorf("%w: bundle costs %d, balance %d", ErrInsufficientCurrency, cost, m.ledger.Currency())
	}
	if err := m.timer.Credit(quantity); err != nil {
		return err
	}
	m.journal = journal
	m.emit(ctx, events.TypeBoosterGranted, events.BoosterGrantedEvent{
		Granted:      quantity,
		FreeBoosters: m.timer.FreeBoosters(),
		Source:       "purchase",
	})
	return s.commit(ctx, b, m)
}

func (s *Service) buyCurrencyLocked(ctx context.Context, b *batch, amount int, journal func(context.Context, *storage.Tx) error) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m := s.begin(sourceBuyCoins)
	if err := m.ledger.Credit(amount); err != nil {
		return err
	}
	m.journal = journal
	return s.commit(ctx, b, m)
}

// SettlePurchase applies an authorized purchase exactly once per transaction ID.
// A transaction that was already settled is reported, not applied again.
func (s *Service) SettlePurchase(ctx context.Context, auth purchase.Authorization) (Settlement, error) {
	if auth.TransactionID == "" {
		return Settlement{}, errors.New("transaction id is required")
	}

	var out Settlement
	err := s.apply(ctx, func(b *batch) error {
		out = Settlement{TransactionID: auth.TransactionID, Product: auth.Product}

		_, err := s.store.Purchases.Get(ctx, auth.TransactionID)
		switch {
		case err == nil:
			out.AlreadySettled = true
		case !errors.Is(err, storage.ErrPurchaseNotFound):
			return fmt.Errorf("failed to check purchase journal: %w", err)
		default:
			err = s.settleLocked(ctx, b, auth)
			if errors.Is(err, storage.ErrDuplicateTransaction) {
				out.AlreadySettled = true
			} else if err != nil {
				return err
			}
		}

		out.Currency = s.ledger.Currency()
		out.FreeBoosters = s.timer.FreeBoosters()
		return nil
	})
	if out.AlreadySettled {
		log.Printf("[Economy] Transaction %s already settled", auth.TransactionID)
	}
	return out, err
}

func (s *Service) settleLocked(ctx context.Context, b *batch, auth purchase.Authorization) error {
	p := auth.Product
	now := s.clock.Now()
	journal := func(ctx context.Context, tx *storage.Tx) error {
		return tx.Purchases.Record(ctx, &storage.PurchaseEntry{
			TransactionID: auth.TransactionID,
			ProductID:     p.ID,
			Kind:          string(p.Kind),
			Amount:        p.Quantity,
			Cost:          p.Cost,
			SettledAt:     now,
		})
	}

	var err error
	switch p.Kind {
	case purchase.KindBoosterBundle:
		err = s.buyBoostersLocked(ctx, b, p.Quantity, p.Cost, journal)
	case purchase.KindCurrencyPack:
		err = s.buyCurrencyLocked(ctx, b, p.Quantity, journal)
	default:
		return fmt.Errorf("unknown product kind %q", p.Kind)
	}
	if err != nil {
		return err
	}

	// The settled event joins the events of the commit it belongs to.
	b.events = append(b.events, events.NewTypedEvent(ctx, events.TypePurchaseSettled, events.PurchaseSettledEvent{
		TransactionID: auth.TransactionID,
		ProductID:     p.ID,
		Kind:          string(p.Kind),
		Amount:        p.Quantity,
	}, now))
	log.Printf("[Economy] Settled %s (%s x%d)", auth.TransactionID, p.ID, p.Quantity)
	return nil
}

// Buy runs a purchase of productID end to end: authorization through the
// processor, then settlement. The provider is called outside the writer lock.
func (s *Service) Buy(ctx context.Context, productID string) (Settlement, error) {
	if s.processor == nil {
		return Settlement{}, ErrPurchasesDisabled
	}

	auth, err := s.processor.Authorize(ctx, productID)
	if err != nil {
		reason := string(purchase.ReasonProviderError)
		if r, ok := purchase.ReasonOf(err); ok {
			reason = string(r)
		}
		s.publishFailure(ctx, productID, reason)
		return Settlement{}, err
	}

	out, err := s.SettlePurchase(ctx, auth)
	if errors.Is(err, ErrInsufficientCurrency) {
		s.publishFailure(ctx, productID, "insufficient_currency")
	}
	return out, err
}

func (s *Service) publishFailure(ctx context.Context, productID, reason string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Dispatch(events.NewTypedEvent(ctx, events.TypePurchaseFailed, events.PurchaseFailedEvent{
		ProductID: productID,
		Reason:    reason,
	}, s.clock.Now()))
}
