package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

type medicineRequest struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        string          `json:"expiry_date"`
	Quantity          int64           `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold *int64          `json:"low_stock_threshold"`
	Manufacturer      string          `json:"manufacturer"`
}

type medicineUpdateRequest struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	BatchNumber       *string          `json:"batch_number"`
	ExpiryDate        *string          `json:"expiry_date"`
	Quantity          *int64           `json:"quantity"`
	Price             *decimal.Decimal `json:"price"`
	LowStockThreshold *int64           `json:"low_stock_threshold"`
	Manufacturer      *string          `json:"manufacturer"`
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(h.session.Medicines(r.URL.Query().Get("query"))))
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	expiry, err := domain.ParseDate(strings.TrimSpace(req.ExpiryDate))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold := h.settings.LowStockDefault
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}

	created, err := h.session.AddMedicine(r.Context(), domain.Medicine{
		Name:              strings.TrimSpace(req.Name),
		Category:          strings.TrimSpace(req.Category),
		BatchNumber:       strings.TrimSpace(req.BatchNumber),
		ExpiryDate:        expiry,
		Quantity:          req.Quantity,
		Price:             req.Price,
		LowStockThreshold: threshold,
		Manufacturer:      strings.TrimSpace(req.Manufacturer),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := domain.MedicinePatch{
		Name:              req.Name,
		Category:          req.Category,
		BatchNumber:       req.BatchNumber,
		Quantity:          req.Quantity,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		Manufacturer:      req.Manufacturer,
	}
	if req.ExpiryDate != nil {
		expiry, err := domain.ParseDate(strings.TrimSpace(*req.ExpiryDate))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.ExpiryDate = &expiry
	}

	updated, err := h.session.UpdateMedicine(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveMedicine(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(h.session.LowStock()))
}

func (h *Handler) expired(w http.ResponseWriter, r *http.Request) {
	asOf := domain.DateOf(time.Now())
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := domain.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	respondJSON(w, http.StatusOK, nonNil(h.session.Expired(asOf)))
}
