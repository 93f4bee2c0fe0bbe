package model

import "time"

// Типы оборудования.
const (
	EquipmentTypeCompressor  = "compressor"
	EquipmentTypeSpotWelder  = "spot_welder"
	EquipmentTypeLifting     = "lifting"
	EquipmentTypeService     = "service"
	EquipmentTypeOther       = "other"
)

// Equipment — единица оборудования клиента.
// Хранится в таблице equipment.
type Equipment struct {
	ID            string
	CompanyID     string
	Name          string
	EquipmentType string
	Manufacturer  *string
	Model         *string
	SerialNumber  *string
	Location      *string
	// Status — active, retired, ...
	Status    string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidEquipmentType проверяет, является ли строка известным типом оборудования.
func IsValidEquipmentType(t string) bool {
	switch t {
	case EquipmentTypeCompressor, EquipmentTypeSpotWelder, EquipmentTypeLifting,
		EquipmentTypeService, EquipmentTypeOther:
		return true
	}
	return false
}
