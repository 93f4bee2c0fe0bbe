package model

import "time"

// InspectionHeader — общие поля специализированных сертификатов
// (компрессоры, подъёмное оборудование, точечная сварка).
type InspectionHeader struct {
	ID                string
	CompanyID         string
	EquipmentID       *string
	CertificateNumber *string
	ServiceDate       time.Time
	RetestDate        time.Time
	EngineerName      *string
	Status            *string
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CompressorRecord — сертификат проверки компрессора.
// Хранится в таблице compressor_records.
type CompressorRecord struct {
	InspectionHeader
	Manufacturer        *string
	Model               *string
	SerialNumber        *string
	YearOfManufacture   *int
	SafeWorkingPressure *float64
	TankVolumeLitres    *float64
}

// LiftServiceRecord — сертификат обследования подъёмного оборудования.
// Хранится в таблице lift_service_records.
type LiftServiceRecord struct {
	InspectionHeader
	LiftType        *string
	Manufacturer    *string
	Model           *string
	SerialNumber    *string
	SafeWorkingLoad *float64
	Defects         *string
}

// SpotWelderRecord — сертификат проверки аппарата точечной сварки.
// Хранится в таблице spot_welder_records.
type SpotWelderRecord struct {
	InspectionHeader
	Model        *string
	SerialNumber *string
	VoltageMax   *float64
	VoltageMin   *float64
	AirPressure  *float64
	TipPressure  *float64
}
