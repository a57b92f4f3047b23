// Пакет auth — проверка подписи JWT и доступа пользователя к организациям.
//
// Verifier проверяет заголовок Authorization: схему bearer и RSA-подпись
// токена ключом UAA (PEM) или JWKS. Audience не проверяется,
// exp и nbf — только если присутствуют.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthentication — токен отсутствует, некорректен или не прошёл проверку.
var ErrAuthentication = errors.New("ошибка аутентификации")

// DefaultBearerPrefix — схема заголовка Authorization по умолчанию.
const DefaultBearerPrefix = "bearer"

// signingMethods — допустимые алгоритмы подписи (асимметричные RSA).
var signingMethods = []string{"RS256", "RS384", "RS512"}

// Claims — проверенные claims токена.
type Claims struct {
	// Subject — sub из JWT (может быть пустым).
	Subject string
	// Scopes — содержимое claim "scope".
	Scopes []string
	// Raw — все claims токена.
	Raw jwt.MapClaims
}

// HasScope проверяет наличие scope.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier проверяет JWT из заголовка Authorization.
type Verifier struct {
	keyfunc jwt.Keyfunc
	prefix  string
	leeway  time.Duration
	logger  *slog.Logger
}

// NewVerifier создаёт Verifier со статическим публичным ключом RSA.
func NewVerifier(key *rsa.PublicKey, prefix string, leeway time.Duration, logger *slog.Logger) *Verifier {
	return NewVerifierWithKeyfunc(func(*jwt.Token) (any, error) {
		return key, nil
	}, prefix, leeway, logger)
}

// NewVerifierWithKeyfunc создаёт Verifier с произвольной функцией выбора ключа.
// Используется для JWKS и в тестах.
func NewVerifierWithKeyfunc(kf jwt.Keyfunc, prefix string, leeway time.Duration, logger *slog.Logger) *Verifier {
	if prefix == "" {
		prefix = DefaultBearerPrefix
	}
	return &Verifier{
		keyfunc: kf,
		prefix:  prefix,
		leeway:  leeway,
		logger:  logger.With(slog.String("component", "token_verifier")),
	}
}

// NewJWKSVerifier создаёт Verifier с JWKS и фоновым обновлением ключей.
// Старт не блокируется недоступностью JWKS endpoint.
func NewJWKSVerifier(
	jwksURL string,
	httpClient *http.Client,
	refreshInterval time.Duration,
	prefix string,
	leeway time.Duration,
	logger *slog.Logger,
) (*Verifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewVerifierWithKeyfunc(k.Keyfunc, prefix, leeway, logger), nil
}

// FetchPEMKey загружает публичный ключ UAA: GET url → {"value": "<PEM>"}.
func FetchPEMKey(ctx context.Context, httpClient *http.Client, url string) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса ключа: %w", err)
	}

	resp, err := httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		return nil, fmt.Errorf("запрос ключа %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("сервис ключей вернул статус %d: %s", resp.StatusCode, string(body))
	}

	var keyResp struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&keyResp); err != nil {
		return nil, fmt.Errorf("декодирование ответа сервиса ключей: %w", err)
	}
	if keyResp.Value == "" {
		return nil, errors.New("сервис ключей вернул пустой ключ")
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(keyResp.Value))
	if err != nil {
		return nil, fmt.Errorf("разбор PEM-ключа: %w", err)
	}
	return key, nil
}

// Verify проверяет значение заголовка Authorization и возвращает claims.
// Любая ошибка оборачивает ErrAuthentication.
func (v *Verifier) Verify(authorizationHeader string) (*Claims, error) {
	tokenString, err := StripPrefix(authorizationHeader, v.prefix)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithValidMethods(signingMethods),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		v.logger.Debug("JWT валидация не пройдена", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: невалидный токен", ErrAuthentication)
	}

	sub, _ := claims.GetSubject()
	return &Claims{
		Subject: sub,
		Scopes:  ScopesFromClaims(claims),
		Raw:     claims,
	}, nil
}

// StripPrefix отделяет токен от схемы заголовка Authorization.
// Схема сравнивается без учёта регистра.
func StripPrefix(header, prefix string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: отсутствует заголовок Authorization", ErrAuthentication)
	}
	if prefix == "" {
		prefix = DefaultBearerPrefix
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, prefix) {
		return "", fmt.Errorf("%w: ожидается %s <token>", ErrAuthentication, prefix)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: пустой токен", ErrAuthentication)
	}
	return token, nil
}

// ScopesFromClaims извлекает claim "scope": список строк или строку через пробел.
func ScopesFromClaims(claims jwt.MapClaims) []string {
	switch v := claims["scope"].(type) {
	case string:
		return strings.Fields(v)
	case []any:
		scopes := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	case []string:
		return v
	default:
		return nil
	}
}
