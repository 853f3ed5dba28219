package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/bundle-deal-service/internal/api/middleware"
	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

// --- Request / Response DTOs ---

type CreateDealRequest struct {
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	Requirements models.Requirements `json:"requirements"`
	IsActive     *bool               `json:"isActive,omitempty"` // defaults to true
}

type ToggleResponse struct {
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

type DealHandler struct {
	service *service.DealService
	logger  *slog.Logger
}

func NewDealHandler(svc *service.DealService, logger *slog.Logger) *DealHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DealHandler{service: svc, logger: logger}
}

// CreateDeal handles POST /admin/deals
func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	d := &models.Deal{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Requirements: req.Requirements,
		IsActive:     active,
		CreatedBy:    middleware.PrincipalFrom(r.Context()),
	}

	id, err := h.service.CreateDeal(r.Context(), d)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// UpdateDeal handles PATCH /admin/deals/{id}
func (h *DealHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	var u models.DealUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	d, err := h.service.UpdateDeal(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ToggleDeal handles POST /admin/deals/{id}/toggle
func (h *DealHandler) ToggleDeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active, err := h.service.ToggleDealActive(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{ID: id, IsActive: active})
}

// DeleteDeal handles DELETE /admin/deals/{id}; deleting a missing deal succeeds.
func (h *DealHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDeal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deal_deleted"})
}

// ListDeals handles GET /admin/deals?active=true
func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter")
			return
		}
		activeOnly = b
	}
	h.list(w, r, activeOnly)
}

// ListActiveDeals handles GET /deals
func (h *DealHandler) ListActiveDeals(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *DealHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	deals, err := h.service.ListDeals(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

// GetDeal handles GET /deals/{id}
func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDeal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "deal_not_found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GetDealByCode handles GET /deals/code/{code}; inactive deals are not found.
func (h *DealHandler) GetDealByCode(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDealByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "deal_not_found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ValidateCart handles POST /deals/{id}/validate
func (h *DealHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	var req models.CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	res, err := h.service.ValidateCart(r.Context(), chi.URLParam(r, "id"), req.CartItems)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RedeemDeal handles POST /deals/{id}/redeem
func (h *DealHandler) RedeemDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.IncrementUsage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
