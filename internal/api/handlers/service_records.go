// service_records.go — обработчики /api/service-records.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

const recordWhat = "Запись обслуживания"

// ListServiceRecords — GET /api/service-records?company_id=.
func (h *APIHandler) ListServiceRecords(w http.ResponseWriter, r *http.Request) {
	params, ok := bindListParams(w, r)
	if !ok {
		return
	}
	page := params.page()

	items, total, err := h.records.List(r.Context(), actor(r), params.companyID(), page)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page, mapServiceRecord))
}

// GetServiceRecord — GET /api/service-records/{id}.
func (h *APIHandler) GetServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.records.Get(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapServiceRecord(rec))
}

// CreateServiceRecord — POST /api/service-records.
// Номер сертификата выдаётся, если не передан; retest_date вычисляется.
func (h *APIHandler) CreateServiceRecord(w http.ResponseWriter, r *http.Request) {
	var req serviceRecordCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	serviceDate, err := retest.ParseDate(req.ServiceDate)
	if err != nil {
		apierrors.ValidationError(w, "service_date: ожидается YYYY-MM-DD или RFC 3339")
		return
	}

	rec, err := h.records.Create(r.Context(), service.ServiceRecordInput{
		CompanyID:         req.CompanyID,
		CertificateNumber: req.CertificateNumber,
		ServiceDate:       serviceDate,
		EngineerName:      req.EngineerName,
		Equipment:         req.equipmentLines.toModel(),
		Status:            req.Status,
		Notes:             req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusCreated, mapServiceRecord(rec))
}

// UpdateServiceRecord — PUT /api/service-records/{id}.
// Частичное обновление по закрытому перечню полей.
func (h *APIHandler) UpdateServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req serviceRecordUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		apierrors.ValidationError(w, "service_date: ожидается YYYY-MM-DD или RFC 3339")
		return
	}

	rec, err := h.records.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapServiceRecord(rec))
}

// DeleteServiceRecord — DELETE /api/service-records/{id}. Доступ: admin.
func (h *APIHandler) DeleteServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.records.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgeInvalidServiceRecords — DELETE /api/service-records/delete-test-data?companyId=.
// Безвозвратно удаляет записи без номера сертификата или со статусом invalid.
// Доступ: admin.
func (h *APIHandler) PurgeInvalidServiceRecords(w http.ResponseWriter, r *http.Request) {
	var companyID string
	if err := runtime.BindQueryParameter("form", true, true, "companyId", r.URL.Query(), &companyID); err != nil || companyID == "" {
		apierrors.ValidationError(w, "Параметр companyId обязателен")
		return
	}

	n, err := h.records.PurgeInvalid(r.Context(), middleware.SubjectFromContext(r.Context()), companyID)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{
		Message:      fmt.Sprintf("Удалено некорректных записей: %d", n),
		DeletedCount: n,
		CompanyID:    companyID,
	})
}

// DueServiceRecords — GET /api/service-records/due?within=30d&company_id=.
// Записи, у которых retest_date наступает в пределах окна (включая просроченные).
func (h *APIHandler) DueServiceRecords(w http.ResponseWriter, r *http.Request) {
	params, ok := bindListParams(w, r)
	if !ok {
		return
	}
	var within *string
	if err := runtime.BindQueryParameter("form", true, false, "within", r.URL.Query(), &within); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр within")
		return
	}
	window := h.records.DueWindow()
	if within != nil && *within != "" {
		d, err := parseWithin(*within)
		if err != nil {
			apierrors.ValidationError(w, "within: ожидается число дней (30d) или длительность (720h)")
			return
		}
		window = d
	}
	page := params.page()

	items, total, err := h.records.Due(r.Context(), actor(r), params.companyID(), window, page)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page, mapServiceRecord))
}

// parseWithin разбирает окно: "30d" и "30" — дни, иначе time.ParseDuration.
func parseWithin(s string) (time.Duration, error) {
	days := strings.TrimSuffix(s, "d")
	if n, err := strconv.Atoi(days); err == nil {
		if n < 0 {
			return 0, errors.New("отрицательное окно")
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("некорректное окно")
	}
	return d, nil
}

// GetCertificate — GET /api/service-records/{id}/certificate.
func (h *APIHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cert, err := h.records.Certificate(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapCertificate(cert))
}

// CreateShareLink — POST /api/service-records/{id}/share.
func (h *APIHandler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	link, err := h.shares.Create(r.Context(), actor(r), middleware.SubjectFromContext(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err, recordWhat)
		return
	}
	writeJSON(w, http.StatusCreated, shareLinkResponse{
		Token:     link.Token,
		RecordID:  link.RecordID,
		URL:       "/public/certificates/" + link.Token,
		ExpiresAt: link.ExpiresAt,
	})
}

// RevokeShareLink — DELETE /api/share-links/{token}.
func (h *APIHandler) RevokeShareLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.shares.Revoke(r.Context(), token); err != nil {
		h.writeServiceError(w, r, err, "Публичная ссылка")
		return
	}
	h.logger.Info("Публичная ссылка отозвана через API",
		slog.String("actor", middleware.SubjectFromContext(r.Context())),
	)
	w.WriteHeader(http.StatusNoContent)
}

// PublicCertificate — GET /public/certificates/{token}. Без аутентификации.
func (h *APIHandler) PublicCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.shares.Public(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeServiceError(w, r, err, "Сертификат")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, mapCertificate(cert))
}
