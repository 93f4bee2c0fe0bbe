// auth.go — middleware аутентификации и проверки ролей.
// Проверка токена делегируется auth.IdentityProvider, выбранному при старте.
// Любая ошибка аутентификации отдаётся как 401, никогда как 500.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/auth"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyIdentity — проверенная личность в контексте запроса.
const ContextKeyIdentity contextKey = "identity"

// Authenticator — middleware аутентификации по bearer token.
type Authenticator struct {
	provider auth.IdentityProvider
	logger   *slog.Logger
}

// NewAuthenticator создаёт middleware с указанным провайдером.
func NewAuthenticator(provider auth.IdentityProvider, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		provider: provider,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware извлекает Bearer token, проверяет его и помещает Identity в контекст.
// Отсутствующий токен передаётся провайдеру пустой строкой: решение за ним.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil && !errors.Is(err, auth.ErrMissingToken) {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			id, err := a.provider.Identify(r.Context(), token)
			if err != nil {
				a.logger.Debug("Аутентификация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, unauthorizedMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "Отсутствует заголовок Authorization"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Срок действия токена истёк"
	default:
		return "Невалидный токен"
	}
}

// RequireRole возвращает middleware, требующий одну из указанных ролей.
// Должен использоваться ПОСЛЕ Authenticator.Middleware().
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil {
				apierrors.Unauthorized(w, "Отсутствует личность в контексте")
				return
			}
			if !slices.Contains(roles, id.Role) {
				apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется роль %s", strings.Join(roles, " или ")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction пропускает роли, которым rbac разрешает действие.
func RequireAction(action rbac.Action) func(http.Handler) http.Handler {
	var roles []string
	for _, role := range []string{rbac.RoleAdmin, rbac.RoleEngineer, rbac.RoleCustomer} {
		if rbac.Allowed(role, action) {
			roles = append(roles, role)
		}
	}
	return RequireRole(roles...)
}

// --- Context helpers ---

// WithIdentity помещает Identity в контекст.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// IdentityFromContext извлекает Identity из контекста запроса.
// Возвращает nil, если личность не найдена.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(ContextKeyIdentity).(*auth.Identity)
	return id
}

// SubjectFromContext извлекает sub из контекста запроса.
func SubjectFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.Subject
}
