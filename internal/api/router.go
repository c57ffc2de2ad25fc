package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-companion/internal/api/handlers"
	"github.com/ramonehamilton/booster-companion/internal/api/response"
	"github.com/ramonehamilton/booster-companion/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		economyHandler := handlers.NewEconomyHandler(s.economy)
		r.Get("/status", economyHandler.GetStatus)
		r.Get("/progress", economyHandler.GetProgress)
		r.Get("/load-report", economyHandler.GetLoadReport)
		r.Route("/boosters", func(r chi.Router) {
			r.Post("/open", economyHandler.OpenBoosters)
			r.Post("/skip", economyHandler.SkipWait)
			r.Post("/refresh", economyHandler.Refresh)
		})

		collectionHandler := handlers.NewCollectionHandler(s.economy)
		r.Route("/collection", func(r chi.Router) {
			r.Get("/", collectionHandler.GetCollection)
			r.Get("/{number}", collectionHandler.GetCard)
			r.Post("/{number}/sell", collectionHandler.SellCard)
			r.Post("/sell-duplicates", collectionHandler.SellDuplicates)
		})

		catalogHandler := handlers.NewCatalogHandler(s.economy.Catalog())
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", catalogHandler.SearchCards)
			r.Get("/{number}", catalogHandler.GetCard)
		})

		shopHandler := handlers.NewShopHandler(s.economy)
		r.Route("/shop", func(r chi.Router) {
			r.Get("/products", shopHandler.GetProducts)
			r.Post("/purchases", shopHandler.Buy)
			r.Get("/purchases", shopHandler.GetPurchases)
			r.Get("/purchases/{transactionID}", shopHandler.GetPurchase)
		})

		historyHandler := handlers.NewHistoryHandler(s.economy)
		r.Get("/history", historyHandler.GetHistory)
		r.Route("/charts", func(r chi.Router) {
			r.Get("/history", historyHandler.GetHistoryChart)
			r.Get("/rarity", historyHandler.GetRarityChart)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "booster-companion-api",
		"version": version.Version,
		"clients": s.wsHub.ClientCount(),
	})
}
