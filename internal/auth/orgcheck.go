// orgcheck.go — проверка доступа пользователя к организациям.
// Администратор (scope console.admin) имеет доступ ко всем организациям,
// остальные проверяются через сервис управления пользователями.
// Результат не кэшируется.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/goartstore/data-acquisition/internal/downstream"
)

// Ошибки проверки доступа.
var (
	// ErrNoOrgAccess — пользователь не состоит в одной из запрошенных организаций.
	ErrNoOrgAccess = errors.New("нет доступа к организации")
	// ErrPermissionService — сервис прав недоступен или вернул ошибку.
	ErrPermissionService = errors.New("сервис прав пользователей недоступен")
)

// PermissionsPath — путь списка организаций пользователя.
const PermissionsPath = "/rest/orgs/permissions"

// DefaultAdminScope — scope, дающий доступ ко всем организациям.
const DefaultAdminScope = "console.admin"

// orgPermission — элемент ответа сервиса прав.
type orgPermission struct {
	Organization struct {
		Metadata struct {
			GUID string `json:"guid"`
		} `json:"metadata"`
	} `json:"organization"`
}

// OrgAccessGuard проверяет доступ пользователя к организациям.
type OrgAccessGuard struct {
	permissionsURL string
	prefix         string
	adminScope     string
	httpClient     *http.Client
	parser         *jwt.Parser
	logger         *slog.Logger
}

// NewOrgAccessGuard создаёт проверку доступа.
// userManagementURL — базовый URL сервиса управления пользователями.
func NewOrgAccessGuard(
	userManagementURL string,
	prefix string,
	adminScope string,
	httpClient *http.Client,
	logger *slog.Logger,
) *OrgAccessGuard {
	if adminScope == "" {
		adminScope = DefaultAdminScope
	}
	return &OrgAccessGuard{
		permissionsURL: downstream.JoinURL(userManagementURL, PermissionsPath),
		prefix:         prefix,
		adminScope:     adminScope,
		httpClient:     httpClient,
		parser:         jwt.NewParser(),
		logger:         logger.With(slog.String("component", "org_access_guard")),
	}
}

// ValidateAccess проверяет, что пользователь с токеном token
// имеет доступ ко всем организациям orgIDs.
// Подпись токена здесь не проверяется: это делает Verifier.
func (g *OrgAccessGuard) ValidateAccess(ctx context.Context, token downstream.Secret, orgIDs []string) error {
	tokenString, err := StripPrefix(token.Value(), g.prefix)
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	if _, _, err := g.parser.ParseUnverified(tokenString, claims); err != nil {
		return fmt.Errorf("%w: декодирование токена: %v", ErrAuthentication, err)
	}

	for _, s := range ScopesFromClaims(claims) {
		if s == g.adminScope {
			return nil
		}
	}

	userOrgs, err := g.fetchUserOrgs(ctx, token)
	if err != nil {
		return err
	}

	var missing []string
	for _, org := range orgIDs {
		if !userOrgs[org] {
			missing = append(missing, org)
		}
	}
	if len(missing) > 0 {
		g.logger.Warn("Отказ в доступе к организациям",
			slog.Any("orgs", missing),
		)
		return fmt.Errorf("%w: %s", ErrNoOrgAccess, strings.Join(missing, ", "))
	}
	return nil
}

// fetchUserOrgs запрашивает организации пользователя.
func (g *OrgAccessGuard) fetchUserOrgs(ctx context.Context, token downstream.Secret) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.permissionsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionService, err)
	}
	req.Header.Set("Authorization", token.Value())

	resp, err := g.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		g.logger.Error("Сервис прав недоступен",
			slog.String("url", g.permissionsURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrPermissionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.logger.Error("Сервис прав вернул ошибку",
			slog.Int("status", resp.StatusCode),
			slog.String("response", string(body)),
		)
		return nil, fmt.Errorf("%w: статус %d", ErrPermissionService, resp.StatusCode)
	}

	var perms []orgPermission
	if err := json.NewDecoder(resp.Body).Decode(&perms); err != nil {
		return nil, fmt.Errorf("%w: декодирование ответа: %v", ErrPermissionService, err)
	}

	orgs := make(map[string]bool, len(perms))
	for _, p := range perms {
		orgs[p.Organization.Metadata.GUID] = true
	}
	return orgs, nil
}
