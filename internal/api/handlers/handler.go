// handler.go — основной обработчик API, реализующий generated.ServerInterface.
// Разбор тел запросов и отображение ошибок сервисного слоя в HTTP-ответы.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/data-acquisition/internal/api/errors"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/generated"
	"github.com/bigkaa/goartstore/data-acquisition/internal/api/middleware"
	"github.com/bigkaa/goartstore/data-acquisition/internal/auth"
	"github.com/bigkaa/goartstore/data-acquisition/internal/domain/model"
	"github.com/bigkaa/goartstore/data-acquisition/internal/repository"
	"github.com/bigkaa/goartstore/data-acquisition/internal/service"
)

// maxBodySize — предел размера тела запроса.
const maxBodySize = 1 << 20

// Проверка на этапе компиляции.
var _ generated.ServerInterface = (*APIHandler)(nil)

// APIHandler — обработчик API Data Acquisition.
type APIHandler struct {
	health *HealthHandler
	orch   *service.Orchestrator
	logger *slog.Logger
}

// NewAPIHandler создаёт обработчик API.
func NewAPIHandler(health *HealthHandler, orch *service.Orchestrator, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		health: health,
		orch:   orch,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive делегирует в HealthHandler.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady делегирует в HealthHandler.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics делегирует в HealthHandler.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Ошибка — уже записанный ответ 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректное тело запроса: %v", err))
		return false
	}
	return true
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationError(w, validationErr.Error())
	case errors.Is(err, auth.ErrAuthentication):
		apierrors.Unauthorized(w, "Невалидный токен")
	case errors.Is(err, auth.ErrNoOrgAccess):
		apierrors.Forbidden(w, "Нет доступа к организации")
	case errors.Is(err, auth.ErrPermissionService):
		apierrors.ServiceUnavailable(w, "Сервис прав доступа недоступен")
	case errors.Is(err, repository.ErrNotFound):
		apierrors.NotFound(w, "Заявка не найдена")
	case errors.Is(err, model.ErrInvalidTransition):
		apierrors.Conflict(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
