package handlers

import (
	"errors"
	"net/http"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/economy"
)

// maxOpenPerRequest caps how many boosters one request may open.
const maxOpenPerRequest = 50

// EconomyHandler handles booster and timer requests.
type EconomyHandler struct {
	svc *economy.Service
}

// NewEconomyHandler creates a new EconomyHandler.
func NewEconomyHandler(svc *economy.Service) *EconomyHandler {
	return &EconomyHandler{svc: svc}
}

// OpenRequest is the body of an open request.
type OpenRequest struct {
	Count int `json:"count"`
}

// GetStatus returns the economy status.
func (h *EconomyHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, status)
}

// Refresh applies any elapsed cooldown and returns the result.
func (h *EconomyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}

// OpenBoosters opens one booster, or Count boosters when given.
func (h *EconomyHandler) OpenBoosters(w http.ResponseWriter, r *http.Request) {
	req := OpenRequest{Count: 1}
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Count <= 0 || req.Count > maxOpenPerRequest {
		response.BadRequest(w, errors.New("count must be between 1 and 50"))
		return
	}

	results, err := h.svc.OpenBoosters(r.Context(), req.Count)
	if len(results) == 0 && err != nil {
		writeError(w, err)
		return
	}
	// A partial open still reports what was drawn.
	response.Success(w, results)
}

// SkipWait pays to finish the cooldown.
func (h *EconomyHandler) SkipWait(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SkipWait(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}

// GetProgress returns completion per rarity.
func (h *EconomyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Progress()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, progress)
}

// GetLoadReport returns how the saved state was recovered at startup.
func (h *EconomyHandler) GetLoadReport(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.svc.LastLoad())
}
