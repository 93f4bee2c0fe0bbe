// certificate.go — генерация номеров сертификатов.
// Основной источник — последовательность service_certificate_seq,
// при её недоступности — номер из последних 6 цифр epoch ms.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// CertificatePrefix — префикс всех номеров сертификатов.
const CertificatePrefix = "BWS-"

var certificateNumbersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eq_certificate_numbers_total",
	Help: "Количество выданных номеров сертификатов по источнику (sequence, fallback, emergency).",
}, []string{"source"})

// CertificateService выдаёт номера сертификатов.
type CertificateService struct {
	seq    repository.CertificateSequence
	now    func() time.Time
	logger *slog.Logger
}

// NewCertificateService создаёт сервис номеров сертификатов.
func NewCertificateService(seq repository.CertificateSequence, logger *slog.Logger) *CertificateService {
	return &CertificateService{
		seq:    seq,
		now:    time.Now,
		logger: logger.With(slog.String("component", "certificate_service")),
	}
}

// Generate возвращает следующий номер.
// Ошибка последовательности даёт fallback-номер; он не гарантирует уникальность.
// Ошибка возвращается только при отменённом контексте.
func (s *CertificateService) Generate(ctx context.Context) (model.CertificateNumber, error) {
	n, err := s.seq.Next(ctx)
	if err == nil {
		certificateNumbersTotal.WithLabelValues(model.CertificateSourceSequence).Inc()
		return model.CertificateNumber{
			Value:  fmt.Sprintf("%s%d", CertificatePrefix, n),
			Source: model.CertificateSourceSequence,
		}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.CertificateNumber{}, ctxErr
	}

	num := FallbackCertificateNumber(s.now())
	s.logger.Warn("Последовательность номеров недоступна, выдан fallback-номер",
		slog.String("certificate_number", num),
		slog.String("error", err.Error()),
	)
	certificateNumbersTotal.WithLabelValues(model.CertificateSourceFallback).Inc()
	return model.CertificateNumber{Value: num, Source: model.CertificateSourceFallback}, nil
}

// Emergency возвращает аварийный номер BWS-EMG-<epoch ms> для случая,
// когда генерация завершилась ошибкой. Вызывающий не блокируется.
func (s *CertificateService) Emergency() model.CertificateNumber {
	certificateNumbersTotal.WithLabelValues(model.CertificateSourceEmergency).Inc()
	return model.CertificateNumber{
		Value:  fmt.Sprintf("%sEMG-%d", CertificatePrefix, s.now().UnixMilli()),
		Source: model.CertificateSourceEmergency,
	}
}

// FallbackCertificateNumber — BWS- плюс последние 6 цифр epoch ms (с ведущими нулями).
func FallbackCertificateNumber(t time.Time) string {
	return fmt.Sprintf("%s%06d", CertificatePrefix, t.UnixMilli()%1_000_000)
}
