package handlers

import (
	"fmt"
	"net/http"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/catalog"
)

// CatalogHandler serves the static card catalog.
type CatalogHandler struct {
	cat *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{cat: cat}
}

// SearchCards lists the catalog, fuzzy-filtered by ?q= and filtered by ?rarity=.
func (h *CatalogHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	cards := h.cat.All()
	if q := r.URL.Query().Get("q"); q != "" {
		cards = h.cat.Search(q)
	}

	if rarity := r.URL.Query().Get("rarity"); rarity != "" {
		want, err := catalog.ParseRarity(rarity)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		var filtered []catalog.CardDefinition
		for _, c := range cards {
			if c.Rarity == want {
				filtered = append(filtered, c)
			}
		}
		cards = filtered
	}

	if cards == nil {
		cards = []catalog.CardDefinition{}
	}
	response.Success(w, cards)
}

// GetCard returns one card by catalog number.
func (h *CatalogHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	number, ok := catalogNumber(w, r)
	if !ok {
		return
	}
	card, found := h.cat.ByNumber(number)
	if !found {
		response.NotFound(w, fmt.Errorf("card %d not found", number))
		return
	}
	response.Success(w, card)
}
