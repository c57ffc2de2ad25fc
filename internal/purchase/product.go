// Package purchase models shop products, the external purchase provider and the
// translation of provider outcomes into settlements or typed failures.
package purchase

import (
	"fmt"
	"sort"
	"sync"
)

// Kind is what a product grants.
type Kind string

const (
	// KindBoosterBundle grants boosters and is paid with in-game currency.
	KindBoosterBundle Kind = "booster_bundle"
	// KindCurrencyPack grants currency and is paid through the store provider.
	KindCurrencyPack Kind = "currency_pack"
)

// Product is one shop offer.
type Product struct {
	ID       string `toml:"id" json:"id"`
	Name     string `toml:"name" json:"name"`
	Kind     Kind   `toml:"kind" json:"kind"`
	Quantity int    `toml:"quantity" json:"quantity"`
	// Cost is the in-game currency price of a booster bundle.
	Cost int `toml:"cost" json:"cost"`
	// Price is the display price of a currency pack, e.g. "$4.99".
	Price string `toml:"price" json:"price,omitempty"`
}

// Validate checks a product definition.
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("product %s: quantity must be positive", p.ID)
	}
	switch p.Kind {
	case KindBoosterBundle:
		if p.Cost < 0 {
			return fmt.Errorf("product %s: cost cannot be negative", p.ID)
		}
	case KindCurrencyPack:
	default:
		return fmt.Errorf("product %s: unknown kind %q", p.ID, p.Kind)
	}
	return nil
}

// DefaultProducts is the built-in shop.
func DefaultProducts() []Product {
	return []Product{
		{ID: "boosters_3", Name: "Booster Bundle x3", Kind: KindBoosterBundle, Quantity: 3, Cost: 250},
		{ID: "boosters_10", Name: "Booster Bundle x10", Kind: KindBoosterBundle, Quantity: 10, Cost: 750},
		{ID: "coins_500", Name: "Pouch of Coins", Kind: KindCurrencyPack, Quantity: 500, Price: "$0.99"},
		{ID: "coins_3000", Name: "Chest of Coins", Kind: KindCurrencyPack, Quantity: 3000, Price: "$4.99"},
	}
}

// ProductSet is a replaceable set of products. Safe for concurrent use.
type ProductSet struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewProductSet validates products and builds a set.
func NewProductSet(products []Product) (*ProductSet, error) {
	s := &ProductSet{}
	if err := s.Replace(products); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps in a new product list. On error the current set is kept.
func (s *ProductSet) Replace(products []Product) error {
	next := make(map[string]Product, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := next[p.ID]; dup {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		next[p.ID] = p
	}

	s.mu.Lock()
	s.products = next
	s.mu.Unlock()
	return nil
}

// Get returns the product with id.
func (s *ProductSet) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// List returns all products sorted by kind then quantity.
func (s *ProductSet) List() []Product {
	s.mu.RLock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of products.
func (s *ProductSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
