package auth

import (
	"context"
	"log/slog"

	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
)

// DevelopmentIdentity — личность, которую возвращает DevelopmentProvider.
var DevelopmentIdentity = Identity{
	Subject: "development-admin",
	Email:   "dev@equiptrak.local",
	Name:    "Development Admin",
	Role:    rbac.RoleAdmin,
}

// DevelopmentProvider принимает любой токен и возвращает синтетического admin.
// Только для локальной разработки; NewProvider не создаёт его в production.
type DevelopmentProvider struct{}

// NewDevelopmentProvider создаёт провайдер и предупреждает об отключённой проверке.
func NewDevelopmentProvider(logger *slog.Logger) *DevelopmentProvider {
	logger.Warn("Проверка токенов отключена: EQ_AUTH_MODE=development, любой запрос получает роль admin")
	return &DevelopmentProvider{}
}

// Identify возвращает DevelopmentIdentity для любого токена, в том числе пустого.
func (*DevelopmentProvider) Identify(context.Context, string) (*Identity, error) {
	id := DevelopmentIdentity
	return &id, nil
}
