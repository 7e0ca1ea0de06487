package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/checkout"
	"pharmapos/m/internal/pos"
	"pharmapos/m/internal/receipt"
)

type cartItemRequest struct {
	MedicineID string `json:"medicine_id"`
}

type cartQuantityRequest struct {
	Delta int64 `json:"delta"`
}

// checkoutRequest leaves absent fields untouched. cash_received accepts a
// number, a numeric string, or null/"" to clear it.
type checkoutRequest struct {
	CustomerName    *string          `json:"customer_name"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	CashReceived    json.RawMessage  `json:"cash_received"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.session.Cart()))
}

func (h *Handler) abandonCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.session.AbandonCart()))
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicineID == "" {
		respondError(w, http.StatusBadRequest, "medicine_id is required")
		return
	}
	view, err := h.session.AddToCart(req.MedicineID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(view))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(h.session.UpdateCartQuantity(chi.URLParam(r, "id"), req.Delta)))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.session.RemoveFromCart(chi.URLParam(r, "id"))))
}

func (h *Handler) updateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := pos.CheckoutFields{
		CustomerName:    req.CustomerName,
		DiscountPercent: req.DiscountPercent,
	}
	if req.CashReceived != nil {
		cash := parseCash(req.CashReceived)
		fields.CashReceived = &cash
	}
	respondJSON(w, http.StatusOK, cartResponse(h.session.SetCheckout(fields)))
}

func parseCash(raw json.RawMessage) decimal.NullDecimal {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return checkout.ParseCash(s)
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return decimal.NullDecimal{}
	}
	return checkout.ParseCash(text)
}

type cartView struct {
	checkout.CartView
	ChangeLabel string `json:"changeLabel"`
}

func cartResponse(v checkout.CartView) cartView {
	if v.Items == nil {
		v.Items = []domain.SaleItem{}
	}
	return cartView{CartView: v, ChangeLabel: v.Totals.ChangeLabel()}
}

type settlementResponse struct {
	checkout.Settlement
	ReceiptText string `json:"receiptText"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	allow := h.settings.AllowOversell
	if v := r.URL.Query().Get("allow_oversell"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "allow_oversell must be a boolean")
			return
		}
		allow = parsed
	}

	settlement, err := h.session.Checkout(r.Context(), allow)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, settlementResponse{
		Settlement:  settlement,
		ReceiptText: receipt.String(settlement.Receipt, h.settings.Template),
	})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, nonNil(h.session.Sales(r.URL.Query().Get("query"))))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.session.Sale(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := h.session.Reprint(chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = receipt.Render(w, rec, h.settings.Template)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
