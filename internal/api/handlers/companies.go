// companies.go — обработчики /api/companies и /api/contacts.
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
)

const (
	companyWhat = "Компания"
	contactWhat = "Контакт"
)

// ListCompanies — GET /api/companies?q=&limit=&offset=.
func (h *APIHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	params, ok := bindListParams(w, r)
	if !ok {
		return
	}
	var q *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр q")
		return
	}
	query := ""
	if q != nil {
		query = *q
	}
	page := params.page()

	items, total, err := h.companies.List(r.Context(), actor(r), query, page)
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page, mapCompany))
}

// GetCompany — GET /api/companies/{id}.
func (h *APIHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.companies.Get(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapCompany(c))
}

// CreateCompany — POST /api/companies.
func (h *APIHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.Create(r.Context(), req.toModel(""))
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	writeJSON(w, http.StatusCreated, mapCompany(c))
}

// UpdateCompany — PUT /api/companies/{id}.
func (h *APIHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.Update(r.Context(), req.toModel(id))
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapCompany(c))
}

// DeleteCompany — DELETE /api/companies/{id}. Доступ: admin.
// 409, если у компании есть сертификаты.
func (h *APIHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.companies.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompanySummary — GET /api/companies/{id}/summary.
func (h *APIHandler) CompanySummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := h.companies.Summary(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapCompanySummary(sum))
}

// ListContacts — GET /api/companies/{id}/contacts.
func (h *APIHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.companies.ListContacts(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}
	out := make([]contactResponse, 0, len(items))
	for _, c := range items {
		out = append(out, mapContact(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// CreateContact — POST /api/companies/{id}/contacts.
func (h *APIHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.CreateContact(r.Context(), req.toModel("", companyID))
	if err != nil {
		h.writeServiceError(w, r, err, contactWhat)
		return
	}
	writeJSON(w, http.StatusCreated, mapContact(c))
}

// UpdateContact — PUT /api/contacts/{id}.
func (h *APIHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.UpdateContact(r.Context(), req.toModel(id, ""))
	if err != nil {
		h.writeServiceError(w, r, err, contactWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapContact(c))
}

// DeleteContact — DELETE /api/contacts/{id}.
func (h *APIHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.companies.DeleteContact(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, contactWhat)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportServiceRecords — GET /api/companies/{id}/service-records/export?format=xlsx|csv.
// Файл собирается в памяти, чтобы ошибка не оборвала ответ на середине.
func (h *APIHandler) ExportServiceRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр format")
		return
	}
	f := ""
	if format != nil {
		f = *format
	}

	var buf bytes.Buffer
	res, err := h.export.Export(r.Context(), actor(r), id, f, &buf)
	if err != nil {
		h.writeServiceError(w, r, err, companyWhat)
		return
	}

	h.logger.Info("Выгрузка записей обслуживания",
		slog.String("company_id", id),
		slog.String("format", res.ContentType),
		slog.Int("rows", res.Rows),
	)
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

