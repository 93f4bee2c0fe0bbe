// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/Paul-BWS/equiptrak/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс, например номер сертификата).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrReferenced — удаление невозможно, на ресурс ссылаются сертификаты.
	ErrReferenced = errors.New("ресурс используется другими записями")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — недостаточно прав или чужая компания.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrUnauthorized — неверные учётные данные.
	ErrUnauthorized = errors.New("неверный email или пароль")
)

// mapRepoErr переводит ошибки репозитория в ошибки сервиса.
// Неизвестные ошибки возвращаются как есть (внутренняя ошибка).
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: %w", ErrReferenced, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, repository.ErrInvalidReference):
		return fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}
	return err
}

// validationf формирует ошибку валидации с сообщением.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
