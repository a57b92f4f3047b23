package handlers

import (
	"net/http"
	"strings"

	"github.com/bigkaa/goartstore/data-acquisition/internal/api/generated"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/middleware"
	"github.com/bigkaa/goartstore/data-acquisition/internal/service"
)

// SubmitRequest — POST /rest/das/requests, ответ 202 с заявкой.
func (h *APIHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var in service.SubmitInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.orch.Submit(r.Context(), middleware.TokenFromContext(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// ListRequests — GET /rest/das/requests?orgs=a,b.
// orgs принимается через запятую и повтором параметра.
func (h *APIHandler) ListRequests(w http.ResponseWriter, r *http.Request, params generated.ListRequestsParams) {
	reqs, err := h.orch.ListForOrgs(r.Context(), middleware.TokenFromContext(r.Context()), splitOrgs(params.Orgs))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// GetRequest — GET /rest/das/requests/{id}.
func (h *APIHandler) GetRequest(w http.ResponseWriter, r *http.Request, id generated.RequestID) {
	req, err := h.orch.Get(r.Context(), middleware.TokenFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DeleteRequest — DELETE /rest/das/requests/{id}.
func (h *APIHandler) DeleteRequest(w http.ResponseWriter, r *http.Request, id generated.RequestID) {
	if err := h.orch.Delete(r.Context(), middleware.TokenFromContext(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// splitOrgs раскладывает значения orgs, пришедшие через запятую.
// Повтор параметра уже собран в срез при разборе запроса.
func splitOrgs(values []generated.KeyPart) []string {
	var orgs []string
	for _, v := range values {
		orgs = append(orgs, strings.Split(v, ",")...)
	}
	return orgs
}
