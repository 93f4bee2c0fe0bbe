// inspections.go — обработчики специализированных сертификатов:
// /api/compressors, /api/lift-service-records, /api/spot-welder-records.
// Все три вида обслуживаются одним обобщённым обработчиком.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

// InspectionHandler — CRUD сертификатов типа T.
type InspectionHandler[T any] struct {
	svc    *service.InspectionService[T]
	what   string
	header func(*T) *model.InspectionHeader
	// decode читает тело запроса в новую запись; false — ответ уже записан
	decode func(w http.ResponseWriter, r *http.Request) (*T, bool)
	encode func(*T) any
	logger *slog.Logger
}

// NewCompressorHandler — обработчик сертификатов компрессоров.
func NewCompressorHandler(svc *service.InspectionService[model.CompressorRecord], logger *slog.Logger) *InspectionHandler[model.CompressorRecord] {
	return &InspectionHandler[model.CompressorRecord]{
		svc:    svc,
		what:   "Сертификат компрессора",
		header: func(r *model.CompressorRecord) *model.InspectionHeader { return &r.InspectionHeader },
		decode: decodeInspection(func(req *compressorRequest, h model.InspectionHeader) *model.CompressorRecord {
			return &model.CompressorRecord{
				InspectionHeader:    h,
				Manufacturer:        req.Manufacturer,
				Model:               req.Model,
				SerialNumber:        req.SerialNumber,
				YearOfManufacture:   req.YearOfManufacture,
				SafeWorkingPressure: req.SafeWorkingPressure,
				TankVolumeLitres:    req.TankVolumeLitres,
			}
		}),
		encode: func(r *model.CompressorRecord) any {
			return compressorResponse{
				inspectionHeaderResponse: mapInspectionHeader(&r.InspectionHeader),
				Manufacturer:             r.Manufacturer,
				Model:                    r.Model,
				SerialNumber:             r.SerialNumber,
				YearOfManufacture:        r.YearOfManufacture,
				SafeWorkingPressure:      r.SafeWorkingPressure,
				TankVolumeLitres:         r.TankVolumeLitres,
			}
		},
		logger: logger,
	}
}

// NewLiftServiceHandler — обработчик сертификатов подъёмного оборудования.
func NewLiftServiceHandler(svc *service.InspectionService[model.LiftServiceRecord], logger *slog.Logger) *InspectionHandler[model.LiftServiceRecord] {
	return &InspectionHandler[model.LiftServiceRecord]{
		svc:    svc,
		what:   "Сертификат подъёмного оборудования",
		header: func(r *model.LiftServiceRecord) *model.InspectionHeader { return &r.InspectionHeader },
		decode: decodeInspection(func(req *liftServiceRequest, h model.InspectionHeader) *model.LiftServiceRecord {
			return &model.LiftServiceRecord{
				InspectionHeader: h,
				LiftType:         req.LiftType,
				Manufacturer:     req.Manufacturer,
				Model:            req.Model,
				SerialNumber:     req.SerialNumber,
				SafeWorkingLoad:  req.SafeWorkingLoad,
				Defects:          req.Defects,
			}
		}),
		encode: func(r *model.LiftServiceRecord) any {
			return liftServiceResponse{
				inspectionHeaderResponse: mapInspectionHeader(&r.InspectionHeader),
				LiftType:                 r.LiftType,
				Manufacturer:             r.Manufacturer,
				Model:                    r.Model,
				SerialNumber:             r.SerialNumber,
				SafeWorkingLoad:          r.SafeWorkingLoad,
				Defects:                  r.Defects,
			}
		},
		logger: logger,
	}
}

// NewSpotWelderHandler — обработчик сертификатов точечной сварки.
func NewSpotWelderHandler(svc *service.InspectionService[model.SpotWelderRecord], logger *slog.Logger) *InspectionHandler[model.SpotWelderRecord] {
	return &InspectionHandler[model.SpotWelderRecord]{
		svc:    svc,
		what:   "Сертификат точечной сварки",
		header: func(r *model.SpotWelderRecord) *model.InspectionHeader { return &r.InspectionHeader },
		decode: decodeInspection(func(req *spotWelderRequest, h model.InspectionHeader) *model.SpotWelderRecord {
			return &model.SpotWelderRecord{
				InspectionHeader: h,
				Model:            req.Model,
				SerialNumber:     req.SerialNumber,
				VoltageMax:       req.VoltageMax,
				VoltageMin:       req.VoltageMin,
				AirPressure:      req.AirPressure,
				TipPressure:      req.TipPressure,
			}
		}),
		encode: func(r *model.SpotWelderRecord) any {
			return spotWelderResponse{
				inspectionHeaderResponse: mapInspectionHeader(&r.InspectionHeader),
				Model:                    r.Model,
				SerialNumber:             r.SerialNumber,
				VoltageMax:               r.VoltageMax,
				VoltageMin:               r.VoltageMin,
				AirPressure:              r.AirPressure,
				TipPressure:              r.TipPressure,
			}
		},
		logger: logger,
	}
}

// List — GET /api/<kind>?company_id=&limit=&offset=.
func (h *InspectionHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	params, ok := bindListParams(w, r)
	if !ok {
		return
	}
	page := params.page()
	items, err := h.svc.List(r.Context(), actor(r), params.companyID(), page)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, h.encode(it))
	}
	writeJSON(w, http.StatusOK, listResponse[any]{Items: out, Total: len(out), Limit: page.Limit, Offset: page.Offset})
}

// Get — GET /api/<kind>/{id}.
func (h *InspectionHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	writeJSON(w, http.StatusOK, h.encode(rec))
}

// Create — POST /api/<kind>.
func (h *InspectionHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.svc.Create(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	writeJSON(w, http.StatusCreated, h.encode(created))
}

// Update — PUT /api/<kind>/{id}. Полная замена изменяемых полей;
// company_id и created_at берутся из сохранённой записи.
func (h *InspectionHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	existing, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	hdr, old := h.header(rec), h.header(existing)
	hdr.ID = id
	hdr.CompanyID = old.CompanyID
	hdr.CreatedAt = old.CreatedAt
	if hdr.CertificateNumber == nil {
		hdr.CertificateNumber = old.CertificateNumber
	}

	updated, err := h.svc.Update(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	writeJSON(w, http.StatusOK, h.encode(updated))
}

// Delete — DELETE /api/<kind>/{id}. Доступ: admin.
func (h *InspectionHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, h.what)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- DTO ---

// inspectionRequest — ограничение для тел запросов специализированных сертификатов.
type inspectionRequest interface {
	compressorRequest | liftServiceRequest | spotWelderRequest
}

// decodeInspection читает тело запроса типа R и собирает запись через build.
func decodeInspection[R inspectionRequest, T any](build func(*R, model.InspectionHeader) *T) func(http.ResponseWriter, *http.Request) (*T, bool) {
	return func(w http.ResponseWriter, r *http.Request) (*T, bool) {
		var req R
		if !decodeJSON(w, r, &req) {
			return nil, false
		}
		hdr, err := headerOf(&req).toModel()
		if err != nil {
			apierrors.ValidationError(w, "service_date: ожидается дата YYYY-MM-DD")
			return nil, false
		}
		return build(&req, hdr), true
	}
}

func headerOf[R inspectionRequest](req *R) *inspectionHeaderRequest {
	switch v := any(req).(type) {
	case *compressorRequest:
		return &v.inspectionHeaderRequest
	case *liftServiceRequest:
		return &v.inspectionHeaderRequest
	case *spotWelderRequest:
		return &v.inspectionHeaderRequest
	}
	return &inspectionHeaderRequest{}
}

type inspectionHeaderRequest struct {
	CompanyID         string  `json:"company_id"`
	EquipmentID       *string `json:"equipment_id"`
	CertificateNumber *string `json:"certificate_number"`
	ServiceDate       string  `json:"service_date"`
	EngineerName      *string `json:"engineer_name"`
	Status            *string `json:"status"`
	Notes             *string `json:"notes"`
}

func (req *inspectionHeaderRequest) toModel() (model.InspectionHeader, error) {
	d, err := retest.ParseDate(req.ServiceDate)
	if err != nil {
		return model.InspectionHeader{}, err
	}
	return model.InspectionHeader{
		CompanyID:         req.CompanyID,
		EquipmentID:       req.EquipmentID,
		CertificateNumber: req.CertificateNumber,
		ServiceDate:       d,
		EngineerName:      req.EngineerName,
		Status:            req.Status,
		Notes:             req.Notes,
	}, nil
}

type inspectionHeaderResponse struct {
	ID                string    `json:"id"`
	CompanyID         string    `json:"company_id"`
	EquipmentID       *string   `json:"equipment_id"`
	CertificateNumber *string   `json:"certificate_number"`
	ServiceDate       string    `json:"service_date"`
	RetestDate        string    `json:"retest_date"`
	EngineerName      *string   `json:"engineer_name"`
	Status            *string   `json:"status"`
	Notes             *string   `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapInspectionHeader(h *model.InspectionHeader) inspectionHeaderResponse {
	return inspectionHeaderResponse{
		ID:                h.ID,
		CompanyID:         h.CompanyID,
		EquipmentID:       h.EquipmentID,
		CertificateNumber: h.CertificateNumber,
		ServiceDate:       h.ServiceDate.Format(retest.DateLayout),
		RetestDate:        h.RetestDate.Format(retest.DateLayout),
		EngineerName:      h.EngineerName,
		Status:            h.Status,
		Notes:             h.Notes,
		CreatedAt:         h.CreatedAt,
		UpdatedAt:         h.UpdatedAt,
	}
}

type compressorRequest struct {
	inspectionHeaderRequest
	Manufacturer        *string  `json:"manufacturer"`
	Model               *string  `json:"model"`
	SerialNumber        *string  `json:"serial_number"`
	YearOfManufacture   *int     `json:"year_of_manufacture"`
	SafeWorkingPressure *float64 `json:"safe_working_pressure"`
	TankVolumeLitres    *float64 `json:"tank_volume_litres"`
}

type compressorResponse struct {
	inspectionHeaderResponse
	Manufacturer        *string  `json:"manufacturer"`
	Model               *string  `json:"model"`
	SerialNumber        *string  `json:"serial_number"`
	YearOfManufacture   *int     `json:"year_of_manufacture"`
	SafeWorkingPressure *float64 `json:"safe_working_pressure"`
	TankVolumeLitres    *float64 `json:"tank_volume_litres"`
}

type liftServiceRequest struct {
	inspectionHeaderRequest
	LiftType        *string  `json:"lift_type"`
	Manufacturer    *string  `json:"manufacturer"`
	Model           *string  `json:"model"`
	SerialNumber    *string  `json:"serial_number"`
	SafeWorkingLoad *float64 `json:"safe_working_load"`
	Defects         *string  `json:"defects"`
}

type liftServiceResponse struct {
	inspectionHeaderResponse
	LiftType        *string  `json:"lift_type"`
	Manufacturer    *string  `json:"manufacturer"`
	Model           *string  `json:"model"`
	SerialNumber    *string  `json:"serial_number"`
	SafeWorkingLoad *float64 `json:"safe_working_load"`
	Defects         *string  `json:"defects"`
}

type spotWelderRequest struct {
	inspectionHeaderRequest
	Model        *string  `json:"model"`
	SerialNumber *string  `json:"serial_number"`
	VoltageMax   *float64 `json:"voltage_max"`
	VoltageMin   *float64 `json:"voltage_min"`
	AirPressure  *float64 `json:"air_pressure"`
	TipPressure  *float64 `json:"tip_pressure"`
}

type spotWelderResponse struct {
	inspectionHeaderResponse
	Model        *string  `json:"model"`
	SerialNumber *string  `json:"serial_number"`
	VoltageMax   *float64 `json:"voltage_max"`
	VoltageMin   *float64 `json:"voltage_min"`
	AirPressure  *float64 `json:"air_pressure"`
	TipPressure  *float64 `json:"tip_pressure"`
}
