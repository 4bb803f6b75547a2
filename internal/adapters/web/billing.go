package web

import (
	"net/http"

	"billing-backend/internal/core"
)

func (h *Handler) createBilling(w http.ResponseWriter, r *http.Request) {
	var req core.BillingInput
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateBilling(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) createBillings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Billings []core.BulkBillingInput `json:"billings"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateBillings(r.Context(), req.Billings)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) getBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	billing, err := h.svc.GetBilling(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, billing)
}

func (h *Handler) listBillings(w http.ResponseWriter, r *http.Request) {
	params := core.BillingListParams{
		ListParams: listParams(r),
		Type:       r.URL.Query().Get("type"),
		Month:      queryInt(r, "month"),
		Year:       queryInt(r, "year"),
	}
	page, err := h.svc.ListBillings(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updateBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.BillingInput
	if !decodeJSON(w, r, &req) {
		return
	}
	billing, err := h.svc.UpdateBilling(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, billing)
}

func (h *Handler) cancelBilling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Remarks string `json:"remarks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	audit, err := h.svc.CancelBilling(r.Context(), id, req.Remarks)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}
