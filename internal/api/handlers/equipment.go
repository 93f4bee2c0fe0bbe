// equipment.go — обработчики /api/equipment.
package handlers

import (
	"net/http"

	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

const equipmentWhat = "Оборудование"

// ListEquipment — GET /api/equipment?company_id=&equipment_type=&limit=&offset=.
func (h *APIHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	params, ok := bindListParams(w, r)
	if !ok {
		return
	}
	var eqType *string
	if err := runtime.BindQueryParameter("form", true, false, "equipment_type", r.URL.Query(), &eqType); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр equipment_type")
		return
	}
	filter := repository.EquipmentFilter{CompanyID: params.companyID()}
	if eqType != nil && *eqType != "" {
		if !model.IsValidEquipmentType(*eqType) {
			apierrors.ValidationError(w, "Неизвестный тип оборудования")
			return
		}
		filter.EquipmentType = *eqType
	}
	page := params.page()

	items, total, err := h.equipment.List(r.Context(), actor(r), filter, page)
	if err != nil {
		h.writeServiceError(w, r, err, equipmentWhat)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, total, page, mapEquipment))
}

// GetEquipment — GET /api/equipment/{id}.
func (h *APIHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.equipment.Get(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err, equipmentWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapEquipment(e))
}

// CreateEquipment — POST /api/equipment.
func (h *APIHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.equipment.Create(r.Context(), req.toModel(""))
	if err != nil {
		h.writeServiceError(w, r, err, equipmentWhat)
		return
	}
	writeJSON(w, http.StatusCreated, mapEquipment(e))
}

// UpdateEquipment — PUT /api/equipment/{id}.
func (h *APIHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req equipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.equipment.Update(r.Context(), req.toModel(id))
	if err != nil {
		h.writeServiceError(w, r, err, equipmentWhat)
		return
	}
	writeJSON(w, http.StatusOK, mapEquipment(e))
}

// DeleteEquipment — DELETE /api/equipment/{id}. Доступ: admin.
func (h *APIHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.equipment.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, equipmentWhat)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
