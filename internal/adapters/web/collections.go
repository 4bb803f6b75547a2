package web

import (
	"net/http"
	"time"

	"billing-backend/internal/core"
)

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	col, err := h.svc.GetCollection(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	params := core.CollectionListParams{
		ListParams: listParams(r),
		Status:     core.CollectionStatus(r.URL.Query().Get("status")),
	}
	page, err := h.svc.ListCollections(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Remarks *string    `json:"remarks,omitempty"`
		Date    *time.Time `json:"date,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	col, err := h.svc.UpdateCollection(r.Context(), id, req.Remarks, req.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (h *Handler) collectionAging(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CollectionAging(r.Context(), core.CollectionStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": report})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.PaymentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.svc.RecordPayment(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListPayments(r.Context(), listParams(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.PaymentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := h.svc.UpdatePayment(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	col, err := h.svc.CancelPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": col})
}
