// auth.go — вход по паролю и управление пользователями.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Paul-BWS/equiptrak/internal/auth"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// minPasswordLength — минимальная длина пароля пользователя.
const minPasswordLength = 8

// LoginResult — результат успешного входа.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService — вход по email/паролю и создание пользователей.
type AuthService struct {
	users  repository.UserRepository
	issuer *auth.TokenIssuer
	logger *slog.Logger
}

// NewAuthService создаёт сервис. issuer может быть nil: вход по паролю
// тогда недоступен (режимы jwks и development).
func NewAuthService(users repository.UserRepository, issuer *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		issuer: issuer,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет пароль и выпускает токен.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.issuer == nil {
		return nil, fmt.Errorf("%w: вход по паролю отключён в текущем режиме аутентификации", ErrValidation)
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationf("email и password обязательны")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("Неудачный вход: пользователь не найден")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		s.logger.Info("Неудачный вход: неверный пароль", slog.String("user_id", u.ID))
		return nil, ErrUnauthorized
	}

	token, exp, err := s.issuer.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}
	s.logger.Info("Успешный вход", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// UserInput — данные для создания или обновления пользователя.
type UserInput struct {
	Email     string
	Name      string
	Password  string
	Role      string
	CompanyID string
}

// UpsertUser создаёт пользователя или обновляет существующего с тем же email.
func (s *AuthService) UpsertUser(ctx context.Context, in UserInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, validationf("некорректный email")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationf("name обязателен")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationf("пароль должен быть не короче %d символов", minPasswordLength)
	}
	if !rbac.IsValidRole(in.Role) {
		return nil, validationf("неизвестная роль %q", in.Role)
	}

	u := &model.User{
		ID:    uuid.New().String(),
		Email: email,
		Name:  strings.TrimSpace(in.Name),
		Role:  in.Role,
	}
	if in.CompanyID != "" {
		if _, err := uuid.Parse(in.CompanyID); err != nil {
			return nil, validationf("company_id должен быть UUID")
		}
		u.CompanyID = &in.CompanyID
	}
	if in.Role == rbac.RoleCustomer && u.CompanyID == nil {
		return nil, validationf("для роли customer нужен company_id")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, mapRepoErr(err)
	}
	s.logger.Info("Пользователь сохранён", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return u, nil
}
