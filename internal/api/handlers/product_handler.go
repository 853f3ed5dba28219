package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

type BulkTierRequest struct {
	ProductIDs []string `json:"productIds"`
	Tier       string   `json:"tier"`
}

type AutoClassifyRequest struct {
	ProductIDs []string `json:"productIds"`
}

type ProductHandler struct {
	service *service.TierService
	logger  *slog.Logger
}

func NewProductHandler(svc *service.TierService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{service: svc, logger: logger}
}

// BulkSetTier handles POST /admin/products/tier
func (h *ProductHandler) BulkSetTier(w http.ResponseWriter, r *http.Request) {
	var req BulkTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.BulkSetTier(r.Context(), req.ProductIDs, tier)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AutoClassify handles POST /admin/products/auto-classify
func (h *ProductHandler) AutoClassify(w http.ResponseWriter, r *http.Request) {
	var req AutoClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	res, err := h.service.AutoClassifyByPrice(r.Context(), req.ProductIDs)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetByTier handles GET /products/tier/{tier}?limit=N
func (h *ProductHandler) GetByTier(w http.ResponseWriter, r *http.Request) {
	tier, err := models.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	items, err := h.service.GetByTier(r.Context(), tier, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
