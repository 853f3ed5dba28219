package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/bundle-deal-service/internal/api/handlers"
	"github.com/Cheertaboi/bundle-deal-service/internal/api/middleware"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AdminJWTSecret string
}

// NewRouter builds the HTTP router for the deal service
func NewRouter(deals *service.DealService, tiers *service.TierService, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger(cfg.Logger))

	dealHandler := handlers.NewDealHandler(deals, cfg.Logger)
	productHandler := handlers.NewProductHandler(tiers, cfg.Logger)

	// Public deal endpoints
	r.Route("/deals", func(r chi.Router) {
		r.Get("/", dealHandler.ListActiveDeals)
		r.Get("/code/{code}", dealHandler.GetDealByCode)
		r.Get("/{id}", dealHandler.GetDeal)
		r.Post("/{id}/validate", dealHandler.ValidateCart)
		r.Post("/{id}/redeem", dealHandler.RedeemDeal)
	})

	r.Get("/products/tier/{tier}", productHandler.GetByTier)

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Principal(cfg.AdminJWTSecret))

		r.Route("/deals", func(r chi.Router) {
			r.Post("/", dealHandler.CreateDeal)
			r.Get("/", dealHandler.ListDeals)
			r.Patch("/{id}", dealHandler.UpdateDeal)
			r.Post("/{id}/toggle", dealHandler.ToggleDeal)
			r.Delete("/{id}", dealHandler.DeleteDeal)
		})
		r.Post("/products/tier", productHandler.BulkSetTier)
		r.Post("/products/auto-classify", productHandler.AutoClassify)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
