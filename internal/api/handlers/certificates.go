// certificates.go — GET /api/generate-certificate-number.
// Ответ всегда 200 с непустым номером: при сбое генерации выдаётся
// аварийный BWS-EMG-<ts>, а поле error содержит категорию сбоя.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// Категории сбоев для поля error. Текст ошибки драйвера наружу не выдаётся.
const (
	certErrSequenceUnavailable = "последовательность номеров недоступна, выдан резервный номер"
	certErrGenerationFailed    = "сбой генерации номера, выдан аварийный номер"
)

// GenerateCertificateNumber — GET /api/generate-certificate-number.
// Доступ: admin, engineer.
func (h *APIHandler) GenerateCertificateNumber(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.generateCertificateNumber(r.Context()))
}

func (h *APIHandler) generateCertificateNumber(ctx context.Context) (resp certificateNumberResponse) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("Паника при генерации номера сертификата", slog.String("panic", fmt.Sprint(p)))
			resp = h.emergencyNumber()
		}
	}()

	num, err := h.certs.Generate(ctx)
	if err != nil {
		h.logger.Error("Ошибка генерации номера сертификата", slog.String("error", err.Error()))
		return h.emergencyNumber()
	}

	resp = certificateNumberResponse{CertificateNumber: num.Value, Source: num.Source}
	if num.Source == model.CertificateSourceFallback {
		resp.Error = certErrSequenceUnavailable
	}
	return resp
}

func (h *APIHandler) emergencyNumber() certificateNumberResponse {
	num := h.certs.Emergency()
	return certificateNumberResponse{
		CertificateNumber: num.Value,
		Source:            num.Source,
		Error:             certErrGenerationFailed,
	}
}
