// auth.go — JWT middleware: проверка заголовка Authorization через auth.Verifier.
// Проверенные claims и исходный заголовок кладутся в контекст запроса:
// заголовок нужен для проверки прав и исходящих вызовов.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/data-acquisition/internal/api/errors"
	"github.com/bigkaa/goartstore/data-acquisition/internal/auth"
	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

// contextKey — тип для ключей контекста.
type contextKey string

const (
	// ContextKeyClaims — проверенные claims.
	ContextKeyClaims contextKey = "jwt_claims"
	// ContextKeyToken — исходный заголовок Authorization (downstream.Secret).
	ContextKeyToken contextKey = "jwt_token"
)

// TokenVerifier проверяет заголовок Authorization.
// Реализуется auth.Verifier.
type TokenVerifier interface {
	Verify(authorizationHeader string) (*auth.Claims, error)
}

// JWTAuth — middleware JWT-аутентификации.
type JWTAuth struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
func NewJWTAuth(verifier TokenVerifier, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		verifier: verifier,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware. Невалидный токен — 401.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			claims, err := j.verifier.Verify(header)
			if err != nil {
				j.logger.Debug("Запрос отклонён",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Отсутствует, невалидный или просроченный токен")
				return
			}

			annotateSubject(r.Context(), claims.Subject)
			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyToken, downstream.NewSecret(header))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- Context helpers ---

// ClaimsFromContext извлекает claims. nil, если их нет.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return claims
}

// TokenFromContext извлекает исходный заголовок Authorization.
// Пустой Secret, если middleware не применялся.
func TokenFromContext(ctx context.Context) downstream.Secret {
	token, _ := ctx.Value(ContextKeyToken).(downstream.Secret)
	return token
}

// SubjectFromContext извлекает sub. Пустая строка, если claims нет.
func SubjectFromContext(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
