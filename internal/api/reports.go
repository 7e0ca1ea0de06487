package api

import (
	"bytes"
	"net/http"
	"strings"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d := h.session.Dashboard()
	d.Categories = nonNil(d.Categories)
	respondJSON(w, http.StatusOK, d)
}

func (h *Handler) salesStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Stats())
}

func (h *Handler) exportSales(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.session.ExportSalesCSV(&buf); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to export sales")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	answer := h.assistant.Ask(r.Context(), req.Prompt, h.session.AssistantSnapshot())
	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *Handler) inventoryHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.assistant.InventoryHealth(r.Context(), h.session.AssistantSnapshot()))
}
