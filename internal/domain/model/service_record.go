package model

import "time"

// EquipmentSlots — количество пар equipmentN_name/equipmentN_serial в сертификате.
const EquipmentSlots = 6

// EquipmentLine — позиция оборудования, указанная в сертификате.
type EquipmentLine struct {
	Name   *string
	Serial *string
}

// Empty возвращает true, если позиция не заполнена.
func (l EquipmentLine) Empty() bool {
	return (l.Name == nil || *l.Name == "") && (l.Serial == nil || *l.Serial == "")
}

// ServiceRecord — запись об обслуживании/инспекции с сертификатом.
// Хранится в таблице service_records.
type ServiceRecord struct {
	// ID — UUID, неизменяем
	ID string
	// CompanyID — владелец записи, задаётся при создании и не меняется
	CompanyID string
	// CertificateNumber — BWS-<n>, BWS-<6 цифр> или BWS-EMG-<ts>
	CertificateNumber *string
	// ServiceDate — дата обслуживания (UTC полночь)
	ServiceDate time.Time
	// RetestDate — дата следующей проверки; всегда вычисляется сервером
	RetestDate   time.Time
	EngineerName *string
	Equipment    [EquipmentSlots]EquipmentLine
	Status       *string
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ServiceRecordPatch — частичное обновление записи.
// Перечень полей закрыт: id, company_id и created_at изменить нельзя.
// nil означает «не менять».
type ServiceRecordPatch struct {
	CertificateNumber *string
	ServiceDate       *time.Time
	// RetestDate заполняется только сервисом по ServiceDate
	RetestDate   *time.Time
	EngineerName *string
	Equipment    [EquipmentSlots]EquipmentLine
	Status       *string
	Notes        *string
}

// Empty возвращает true, если патч не содержит ни одного поля.
func (p *ServiceRecordPatch) Empty() bool {
	if p.CertificateNumber != nil || p.ServiceDate != nil || p.RetestDate != nil ||
		p.EngineerName != nil || p.Status != nil || p.Notes != nil {
		return false
	}
	for _, l := range p.Equipment {
		if l.Name != nil || l.Serial != nil {
			return false
		}
	}
	return true
}
