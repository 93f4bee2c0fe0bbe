// Пакет rbac — роли EquipTrak и правила доступа к данным компании.
//
// admin — полный доступ, включая удаление и очистку тестовых данных.
// engineer — создание и изменение записей любых компаний.
// customer — только чтение и только своей компании.
package rbac

import "slices"

// Роли.
const (
	RoleAdmin    = "admin"
	RoleEngineer = "engineer"
	RoleCustomer = "customer"
)

// Действия над ресурсами.
type Action int

const (
	// ActionRead — чтение
	ActionRead Action = iota
	// ActionWrite — создание и изменение
	ActionWrite
	// ActionDelete — удаление
	ActionDelete
	// ActionPurge — массовая очистка некорректных записей компании
	ActionPurge
)

// Subject — минимальный набор данных о вызывающем, нужный для проверки доступа.
type Subject struct {
	Role      string
	CompanyID string
}

// IsValidRole проверяет, является ли строка известной ролью.
func IsValidRole(role string) bool {
	return slices.Contains([]string{RoleAdmin, RoleEngineer, RoleCustomer}, role)
}

// Allowed проверяет, может ли роль выполнить действие (без учёта компании).
func Allowed(role string, action Action) bool {
	if action < ActionRead || action > ActionPurge {
		return false
	}
	switch role {
	case RoleAdmin:
		return true
	case RoleEngineer:
		return action == ActionRead || action == ActionWrite
	case RoleCustomer:
		return action == ActionRead
	}
	return false
}

// CanAccess проверяет действие над данными конкретной компании.
// customer ограничен своей компанией.
func CanAccess(s Subject, action Action, companyID string) bool {
	if !Allowed(s.Role, action) {
		return false
	}
	if s.Role == RoleCustomer {
		return s.CompanyID != "" && s.CompanyID == companyID
	}
	return true
}

// ScopeCompany возвращает компанию, которой ограничен список для субъекта.
// Пустая строка — без ограничения. Для customer фильтр запроса игнорируется.
func ScopeCompany(s Subject, requested string) (string, bool) {
	if s.Role == RoleCustomer {
		if requested != "" && requested != s.CompanyID {
			return "", false
		}
		return s.CompanyID, true
	}
	return requested, true
}
