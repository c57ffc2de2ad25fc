package handlers

import (
	"bytes"
	"net/http"

	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/charts"
	"github.com/ramonehamilton/booster-companion/internal/draw"
	"github.com/ramonehamilton/booster-companion/internal/economy"
	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// maxSimulatedDraws caps the rarity chart simulation.
const maxSimulatedDraws = 1_000_000

// HistoryHandler serves the audit trail and charts.
type HistoryHandler struct {
	svc *economy.Service
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *economy.Service) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// GetHistory returns the newest audit rows.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	changes, err := h.svc.History(r.Context(), intQuery(r, "limit", 100))
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []*storage.EconomyChange{}
	}
	response.Success(w, changes)
}

// GetHistoryChart renders one field's history as HTML. ?field defaults to currency.
func (h *HistoryHandler) GetHistoryChart(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		field = storage.FieldCurrency
	}

	changes, err := h.svc.History(r.Context(), intQuery(r, "limit", 500))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderHistoryChart(changes, field, charts.DefaultChartConfig(), &buf); err != nil {
		response.NotFound(w, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

// GetRarityChart simulates ?draws= draws and renders the observed distribution.
// It uses its own engine so live draws are unaffected.
func (h *HistoryHandler) GetRarityChart(w http.ResponseWriter, r *http.Request) {
	draws := intQuery(r, "draws", 100_000)
	if draws > maxSimulatedDraws {
		draws = maxSimulatedDraws
	}

	engine, err := draw.New(h.svc.Catalog(), nil)
	if err != nil {
		response.InternalError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderRarityChart(engine.Simulate(draws), charts.DefaultChartConfig(), &buf); err != nil {
		response.InternalError(w, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
