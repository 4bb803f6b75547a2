package web

import (
	"net/http"

	"billing-backend/internal/core"
)

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req core.ClientInput
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.svc.CreateClient(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListClients(r.Context(), listParams(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.ClientInput
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.svc.UpdateClient(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientScopedParams(r *http.Request) core.ClientScopedListParams {
	return core.ClientScopedListParams{
		ListParams: listParams(r),
		ClientID:   queryInt(r, "client_id"),
	}
}

func (h *Handler) createClientBranch(w http.ResponseWriter, r *http.Request) {
	var req core.ClientBranchInput
	if !decodeJSON(w, r, &req) {
		return
	}
	branch, err := h.svc.CreateClientBranch(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (h *Handler) getClientBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	branch, err := h.svc.GetClientBranch(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (h *Handler) listClientBranches(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListClientBranches(r.Context(), clientScopedParams(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updateClientBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.ClientBranchInput
	if !decodeJSON(w, r, &req) {
		return
	}
	branch, err := h.svc.UpdateClientBranch(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (h *Handler) deleteClientBranch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClientBranch(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createClientDepartment(w http.ResponseWriter, r *http.Request) {
	var req core.ClientDepartmentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	dept, err := h.svc.CreateClientDepartment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

func (h *Handler) getClientDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dept, err := h.svc.GetClientDepartment(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (h *Handler) listClientDepartments(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListClientDepartments(r.Context(), clientScopedParams(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) updateClientDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req core.ClientDepartmentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	dept, err := h.svc.UpdateClientDepartment(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (h *Handler) deleteClientDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClientDepartment(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
