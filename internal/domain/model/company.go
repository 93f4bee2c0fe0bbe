// Пакет model — доменные модели EquipTrak.
// Nullable-столбцы представлены указателями.
package model

import "time"

// Company — клиент (арендатор), владеющий оборудованием.
// Хранится в таблице companies.
type Company struct {
	// ID — UUID записи
	ID string
	// Name — название компании (company_name)
	Name      string
	Address   *string
	City      *string
	County    *string
	Postcode  *string
	Country   *string
	Telephone *string
	Email     *string
	Website   *string
	Industry  *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact — контактное лицо компании.
// Хранится в таблице contacts.
type Contact struct {
	ID        string
	CompanyID string
	FirstName string
	LastName  *string
	Email     *string
	Telephone *string
	Mobile    *string
	JobTitle  *string
	// IsPrimary — основной контакт компании
	IsPrimary bool
	// HasSystemAccess — контакт может входить в систему (пользователь customer)
	HasSystemAccess bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CompanySummary — сводка по компании для карточки клиента.
type CompanySummary struct {
	CompanyID          string
	EquipmentCount     int
	ServiceRecordCount int
	DueSoonCount       int
	OverdueCount       int
	// LatestServiceDate — дата последнего обслуживания (nil, если записей нет)
	LatestServiceDate *time.Time
}
