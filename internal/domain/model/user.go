package model

import "time"

// User — пользователь системы.
// Хранится в таблице users.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	// Role — admin, engineer, customer
	Role string
	// CompanyID — обязателен для customer
	CompanyID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
