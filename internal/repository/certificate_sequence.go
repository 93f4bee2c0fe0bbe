package repository

import (
	"context"
	"fmt"
)

// CertificateSequence — источник номеров сертификатов (service_certificate_seq).
type CertificateSequence interface {
	// Next возвращает следующее значение последовательности.
	Next(ctx context.Context) (int64, error)
}

type certificateSequence struct {
	db DBTX
}

// NewCertificateSequence создаёт обёртку над последовательностью service_certificate_seq.
func NewCertificateSequence(db DBTX) CertificateSequence {
	return &certificateSequence{db: db}
}

func (s *certificateSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT nextval('service_certificate_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка nextval(service_certificate_seq): %w", err)
	}
	return n, nil
}
