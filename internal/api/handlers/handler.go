// handler.go — основной обработчик API EquipTrak.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Paul-BWS/equiptrak/internal/api/errors"
	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/repository"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

// maxBodyBytes — предельный размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Services — сервисы, которые использует APIHandler.
type Services struct {
	Certificates   *service.CertificateService
	ServiceRecords *service.ServiceRecordService
	Companies      *service.CompanyService
	Equipment      *service.EquipmentService
	Compressors    *service.InspectionService[model.CompressorRecord]
	LiftServices   *service.InspectionService[model.LiftServiceRecord]
	SpotWelders    *service.InspectionService[model.SpotWelderRecord]
	Shares         *service.ShareService
	Export         *service.ExportService
	Auth           *service.AuthService
}

// APIHandler — обработчик HTTP API.
type APIHandler struct {
	health      *HealthHandler
	certs       *service.CertificateService
	records     *service.ServiceRecordService
	companies   *service.CompanyService
	equipment   *service.EquipmentService
	compressors *InspectionHandler[model.CompressorRecord]
	lifts       *InspectionHandler[model.LiftServiceRecord]
	welders     *InspectionHandler[model.SpotWelderRecord]
	shares      *service.ShareService
	export      *service.ExportService
	auth        *service.AuthService
	logger      *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(health *HealthHandler, svc Services, logger *slog.Logger) *APIHandler {
	logger = logger.With(slog.String("component", "api_handler"))
	return &APIHandler{
		health:      health,
		certs:       svc.Certificates,
		records:     svc.ServiceRecords,
		companies:   svc.Companies,
		equipment:   svc.Equipment,
		compressors: NewCompressorHandler(svc.Compressors, logger),
		lifts:       NewLiftServiceHandler(svc.LiftServices, logger),
		welders:     NewSpotWelderHandler(svc.SpotWelders, logger),
		shares:      svc.Shares,
		export:      svc.Export,
		auth:        svc.Auth,
		logger:      logger,
	}
}

// Health возвращает обработчик health endpoints.
func (h *APIHandler) Health() *HealthHandler { return h.health }

// Compressors возвращает обработчик сертификатов компрессоров.
func (h *APIHandler) Compressors() *InspectionHandler[model.CompressorRecord] { return h.compressors }

// LiftServices возвращает обработчик сертификатов подъёмного оборудования.
func (h *APIHandler) LiftServices() *InspectionHandler[model.LiftServiceRecord] { return h.lifts }

// SpotWelders возвращает обработчик сертификатов точечной сварки.
func (h *APIHandler) SpotWelders() *InspectionHandler[model.SpotWelderRecord] { return h.welders }

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. Неизвестные ключи игнорируются.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return false
	}
	return true
}

// actor возвращает субъекта проверки доступа из контекста запроса.
func actor(r *http.Request) rbac.Subject {
	id := middleware.IdentityFromContext(r.Context())
	if id == nil {
		return rbac.Subject{}
	}
	return id.RBACSubject()
}

// pathID извлекает UUID из параметра пути {id}.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		apierrors.ValidationError(w, "Идентификатор должен быть UUID")
		return "", false
	}
	return id.String(), true
}

// listParams — общие параметры списков.
type listParams struct {
	CompanyID *string
	Limit     *int
	Offset    *int
}

// bindListParams разбирает company_id, limit и offset из query string.
func bindListParams(w http.ResponseWriter, r *http.Request) (listParams, bool) {
	var p listParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "company_id", q, &p.CompanyID); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр company_id")
		return p, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр limit")
		return p, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &p.Offset); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр offset")
		return p, false
	}
	if p.CompanyID != nil && *p.CompanyID != "" {
		if _, err := uuid.Parse(*p.CompanyID); err != nil {
			apierrors.ValidationError(w, "company_id должен быть UUID")
			return p, false
		}
	}
	return p, true
}

func (p listParams) page() repository.Page {
	l, o := paginationDefaults(p.Limit, p.Offset)
	return repository.Page{Limit: l, Offset: o}
}

func (p listParams) companyID() string {
	if p.CompanyID == nil {
		return ""
	}
	return *p.CompanyID
}

// paginationDefaults нормализует параметры пагинации.
func paginationDefaults(limit *int, offset *int) (int, int) {
	l := 100
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}

// listResponse — страница списка.
type listResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newListResponse[M any, D any](items []*M, total int, page repository.Page, mapFn func(*M) D) listResponse[D] {
	out := make([]D, 0, len(items))
	for _, it := range items {
		out = append(out, mapFn(it))
	}
	return listResponse[D]{Items: out, Total: total, Limit: page.Limit, Offset: page.Offset}
}

// writeServiceError отображает ошибку сервиса в HTTP-ответ.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	writeServiceError(w, r, h.logger, err, what)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, what string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, what+": не найдено")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Доступ к данным другой компании запрещён")
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, "Неверный email или пароль")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, what+": конфликт, такой номер или запись уже существует")
	case errors.Is(err, service.ErrReferenced):
		apierrors.Conflict(w, what+": удаление невозможно, есть связанные сертификаты")
	default:
		logger.Error("Внутренняя ошибка",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
