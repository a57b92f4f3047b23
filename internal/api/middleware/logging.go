// logging.go — журнал обращений к API Data Acquisition.
// Каждому запросу назначается X-Request-ID, в запись попадают шаблон
// маршрута chi и sub токена, проверенного JWTAuth ниже по цепочке.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader — заголовок идентификатора запроса.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen — длиннее входящий X-Request-ID заменяется новым.
const maxRequestIDLen = 128

// ContextKeyAccess — запись журнала текущего запроса (*accessEntry).
const ContextKeyAccess contextKey = "access_entry"

// accessEntry заполняется по ходу обработки запроса.
// subject проставляет JWTAuth, контекст которого RequestLogger не видит.
type accessEntry struct {
	requestID string
	subject   string
}

// statusRecorder перехватывает статус-код и размер ответа.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap для http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger пишет одну запись на запрос.
// 5xx — ERROR, 4xx — WARN, остальное INFO.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "access_log"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := &accessEntry{requestID: r.Header.Get(RequestIDHeader)}
			if entry.requestID == "" || len(entry.requestID) > maxRequestIDLen {
				entry.requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, entry.requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), ContextKeyAccess, entry)
			next.ServeHTTP(rec, r.WithContext(ctx))

			level := slog.LevelInfo
			if rec.status >= 500 {
				level = slog.LevelError
			} else if rec.status >= 400 {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("request_id", entry.requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
			}
			if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
				attrs = append(attrs, slog.String("route", rctx.RoutePattern()))
			}
			if entry.subject != "" {
				attrs = append(attrs, slog.String("sub", entry.subject))
			}
			logger.LogAttrs(ctx, level, "Обращение к API", attrs...)
		})
	}
}

// RequestIDFromContext возвращает X-Request-ID текущего запроса.
// Пустая строка вне RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	if entry, ok := ctx.Value(ContextKeyAccess).(*accessEntry); ok {
		return entry.requestID
	}
	return ""
}

// annotateSubject передаёт sub в запись журнала.
func annotateSubject(ctx context.Context, subject string) {
	if entry, ok := ctx.Value(ContextKeyAccess).(*accessEntry); ok {
		entry.subject = subject
	}
}
