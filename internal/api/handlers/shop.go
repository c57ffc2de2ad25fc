package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/purchase"
)

// ShopHandler handles product listing and purchases.
type ShopHandler struct {
	svc *economy.Service
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(svc *economy.Service) *ShopHandler {
	return &ShopHandler{svc: svc}
}

// BuyRequest is the body of a purchase request.
type BuyRequest struct {
	ProductID string `json:"productId"`
}

// GetProducts lists the products on sale.
func (h *ShopHandler) GetProducts(w http.ResponseWriter, _ *http.Request) {
	processor := h.svc.Processor()
	if processor == nil {
		response.Success(w, []purchase.Product{})
		return
	}
	response.Success(w, processor.Products().List())
}

// Buy purchases a product and settles it.
func (h *ShopHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.ProductID == "" {
		response.BadRequest(w, errors.New("productId is required"))
		return
	}

	settlement, err := h.svc.Buy(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	if settlement.AlreadySettled {
		response.Success(w, settlement)
		return
	}
	response.Created(w, settlement)
}

// GetPurchases lists settled purchases, newest first.
func (h *ShopHandler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Purchases(r.Context(), intQuery(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, list)
}

// GetPurchase returns one settled purchase.
func (h *ShopHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Purchase(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, entry)
}
