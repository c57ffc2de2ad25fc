package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/catalog"
	"github.com/ramonehamilton/booster-companion/internal/collection"
	"github.com/ramonehamilton/booster-companion/internal/economy"
)

// CollectionHandler handles collection-related API requests.
type CollectionHandler struct {
	svc *economy.Service
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(svc *economy.Service) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// maxPageSize caps ?page_size= for collection listings.
const maxPageSize = 1000

// GetCollection returns owned cards, optionally filtered by rarity and paginated.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Collection()
	if err != nil {
		writeError(w, err)
		return
	}

	if rarity := r.URL.Query().Get("rarity"); rarity != "" {
		want, err := catalog.ParseRarity(rarity)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.Card.Rarity == want {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	page := intQuery(r, "page", 1)
	pageSize := min(intQuery(r, "page_size", 100), maxPageSize)
	start := len(entries)
	if page-1 <= len(entries)/pageSize {
		start = min((page-1)*pageSize, len(entries))
	}
	end := min(start+pageSize, len(entries))

	response.Paginated(w, append([]collection.Entry{}, entries[start:end]...), page, pageSize, len(entries))
}

// GetCard returns how many copies of a card are owned.
func (h *CollectionHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	number, ok := catalogNumber(w, r)
	if !ok {
		return
	}
	card, _ := h.svc.Catalog().ByNumber(number)
	count, err := h.svc.Owned(number)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, collection.Entry{Card: card, Count: count})
}

// SellCard sells one copy of a card.
func (h *CollectionHandler) SellCard(w http.ResponseWriter, r *http.Request) {
	number, ok := catalogNumber(w, r)
	if !ok {
		return
	}
	res, err := h.svc.SellCard(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}

// SellDuplicates sells every copy beyond the first.
func (h *CollectionHandler) SellDuplicates(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SellDuplicates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}

func catalogNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		response.BadRequest(w, errors.New("catalog number must be a positive integer"))
		return 0, false
	}
	return number, true
}
