// Пакет auth — проверка личности вызывающего (bearer JWT) и выпуск токенов.
//
// Способ проверки выбирается один раз при старте по EQ_AUTH_MODE:
// hmac (HS256 с общим секретом), jwks (RS256 по ключам внешнего IdP)
// или development (синтетический admin, запрещён в production).
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Paul-BWS/equiptrak/internal/config"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
)

// Ошибки аутентификации. Все они отображаются в HTTP 401.
var (
	// ErrMissingToken — заголовок Authorization отсутствует или пуст.
	ErrMissingToken = errors.New("отсутствует bearer token")
	// ErrInvalidToken — подпись, формат или claims токена некорректны.
	ErrInvalidToken = errors.New("невалидный токен")
	// ErrExpiredToken — срок действия токена истёк.
	ErrExpiredToken = errors.New("срок действия токена истёк")
)

// Identity — проверенная личность вызывающего.
type Identity struct {
	Subject string
	Email   string
	Name    string
	// Role — admin, engineer, customer
	Role string
	// CompanyID — компания customer (пусто для остальных ролей)
	CompanyID string
}

// RBACSubject возвращает данные для проверки доступа.
func (i *Identity) RBACSubject() rbac.Subject {
	return rbac.Subject{Role: i.Role, CompanyID: i.CompanyID}
}

// IdentityProvider проверяет токен и возвращает личность.
type IdentityProvider interface {
	Identify(ctx context.Context, token string) (*Identity, error)
}

// Claims — claims токенов EquipTrak.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}

// identityFromClaims проверяет обязательные claims и строит Identity.
func identityFromClaims(c *Claims) (*Identity, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: отсутствует sub", ErrInvalidToken)
	}
	if !rbac.IsValidRole(c.Role) {
		return nil, fmt.Errorf("%w: неизвестная роль %q", ErrInvalidToken, c.Role)
	}
	if c.Role == rbac.RoleCustomer && c.CompanyID == "" {
		return nil, fmt.Errorf("%w: у customer нет company_id", ErrInvalidToken)
	}
	return &Identity{
		Subject:   c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		Role:      c.Role,
		CompanyID: c.CompanyID,
	}, nil
}

// mapParseError сводит ошибки golang-jwt к ошибкам пакета.
func mapParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpiredToken
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

// BearerToken извлекает токен из заголовка Authorization.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: ожидается Bearer <token>", ErrInvalidToken)
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// NewProvider создаёт IdentityProvider по режиму из конфигурации.
func NewProvider(cfg *config.Config, logger *slog.Logger) (IdentityProvider, error) {
	switch cfg.AuthMode {
	case config.AuthModeHMAC:
		return NewHMACProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTLeeway), nil
	case config.AuthModeJWKS:
		return NewJWKSProvider(cfg.JWKSURL, cfg.JWKSRefreshInterval, cfg.JWTIssuer, cfg.JWTLeeway, logger)
	case config.AuthModeDevelopment:
		if cfg.Environment == config.EnvProduction {
			return nil, errors.New("режим аутентификации development запрещён в production")
		}
		return NewDevelopmentProvider(logger), nil
	}
	return nil, fmt.Errorf("неизвестный режим аутентификации: %q", cfg.AuthMode)
}
