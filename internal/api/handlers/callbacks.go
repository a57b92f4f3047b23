// callbacks.go — callback внешних сервисов и уведомления Uploader.
// Идентификатор заявки берётся из пути, поле id тела не используется.
package handlers

import (
	"net/http"

	"github.com/bigkaa/goartstore/data-acquisition/internal/api/generated"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/middleware"
	"github.com/bigkaa/goartstore/data-acquisition/internal/service"
)

// DownloadCallback — POST /v1/das/callback/downloader/{id}.
func (h *APIHandler) DownloadCallback(w http.ResponseWriter, r *http.Request, id generated.RequestID) {
	var in service.DownloadCallbackInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.orch.DownloadCallback(r.Context(), middleware.TokenFromContext(r.Context()), id, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// MetadataCallback — POST /v1/das/callback/metadata/{id}.
func (h *APIHandler) MetadataCallback(w http.ResponseWriter, r *http.Request, id generated.RequestID) {
	var in service.MetadataCallbackInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.orch.MetadataCallback(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Upload — POST /v1/das/uploader, ответ 200 с заявкой в DOWNLOADED.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var in service.UploadInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.orch.Upload(r.Context(), middleware.TokenFromContext(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
