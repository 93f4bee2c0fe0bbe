package model

import "time"

// Источники номера сертификата.
const (
	CertificateSourceSequence  = "sequence"
	CertificateSourceFallback  = "fallback"
	CertificateSourceEmergency = "emergency"
)

// CertificateNumber — сгенерированный номер сертификата и его происхождение.
type CertificateNumber struct {
	Value  string
	Source string
}

// Статусы сертификата относительно даты повторной проверки.
const (
	CertificateStatusValid   = "valid"
	CertificateStatusDue     = "due"
	CertificateStatusOverdue = "overdue"
)

// Certificate — представление сертификата для печати и публичной ссылки.
type Certificate struct {
	Record  *ServiceRecord
	Company *Company
	// Status — valid, due, overdue на момент формирования
	Status string
	// DaysUntilRetest — отрицательное значение для просроченных
	DaysUntilRetest int
}

// ShareLink — публичная ссылка на сертификат.
// Хранится в таблице share_links.
type ShareLink struct {
	Token     string
	RecordID  string
	CreatedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active возвращает true, если ссылка не отозвана и не истекла на момент now.
func (l *ShareLink) Active(now time.Time) bool {
	return l.RevokedAt == nil && now.Before(l.ExpiresAt)
}
