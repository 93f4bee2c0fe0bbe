// service_records.go — сервис записей обслуживания (сертификатов).
// Дата повторной проверки всегда вычисляется здесь по политике retest.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// ServiceRecordInput — данные для создания записи обслуживания.
type ServiceRecordInput struct {
	CompanyID         string
	CertificateNumber *string
	ServiceDate       time.Time
	EngineerName      *string
	Equipment         [model.EquipmentSlots]model.EquipmentLine
	Status            *string
	Notes             *string
}

// ServiceRecordService — бизнес-логика записей обслуживания.
type ServiceRecordService struct {
	records   repository.ServiceRecordRepository
	companies repository.CompanyRepository
	certs     *CertificateService
	policy    retest.Policy
	dueWindow time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewServiceRecordService создаёт сервис записей обслуживания.
func NewServiceRecordService(
	records repository.ServiceRecordRepository,
	companies repository.CompanyRepository,
	certs *CertificateService,
	policy retest.Policy,
	dueWindow time.Duration,
	logger *slog.Logger,
) *ServiceRecordService {
	return &ServiceRecordService{
		records:   records,
		companies: companies,
		certs:     certs,
		policy:    policy,
		dueWindow: dueWindow,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "service_record_service")),
	}
}

// DueWindow возвращает окно статуса due из конфигурации.
func (s *ServiceRecordService) DueWindow() time.Duration {
	return s.dueWindow
}

// List возвращает записи с учётом компании вызывающего.
func (s *ServiceRecordService) List(ctx context.Context, actor rbac.Subject, companyID string, page repository.Page) ([]*model.ServiceRecord, int, error) {
	scope, ok := rbac.ScopeCompany(actor, companyID)
	if !ok {
		return nil, 0, ErrForbidden
	}
	filter := repository.ServiceRecordFilter{CompanyID: scope}

	items, err := s.records.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения записей: %w", err)
	}
	total, err := s.records.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей: %w", err)
	}
	return items, total, nil
}

// Get возвращает запись по ID.
func (s *ServiceRecordService) Get(ctx context.Context, actor rbac.Subject, id string) (*model.ServiceRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !rbac.CanAccess(actor, rbac.ActionRead, rec.CompanyID) {
		return nil, ErrForbidden
	}
	return rec, nil
}

// Create создаёт запись. Номер сертификата выдаётся, если не передан.
func (s *ServiceRecordService) Create(ctx context.Context, in ServiceRecordInput) (*model.ServiceRecord, error) {
	if _, err := uuid.Parse(in.CompanyID); err != nil {
		return nil, validationf("company_id должен быть UUID")
	}
	if in.ServiceDate.IsZero() {
		return nil, validationf("service_date обязателен")
	}

	rec := &model.ServiceRecord{
		ID:                uuid.New().String(),
		CompanyID:         in.CompanyID,
		CertificateNumber: in.CertificateNumber,
		ServiceDate:       retest.Truncate(in.ServiceDate),
		RetestDate:        s.policy.Next(in.ServiceDate),
		EngineerName:      in.EngineerName,
		Equipment:         in.Equipment,
		Status:            in.Status,
		Notes:             in.Notes,
	}

	if rec.CertificateNumber == nil || *rec.CertificateNumber == "" {
		num, err := s.certs.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка выдачи номера сертификата: %w", err)
		}
		rec.CertificateNumber = &num.Value
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Запись обслуживания создана",
		slog.String("id", rec.ID),
		slog.String("company_id", rec.CompanyID),
		slog.String("certificate_number", *rec.CertificateNumber),
	)
	return rec, nil
}

// Update применяет частичное обновление.
// retest_date пересчитывается только при наличии service_date в патче.
func (s *ServiceRecordService) Update(ctx context.Context, id string, patch *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
	p := *patch
	p.RetestDate = nil
	if p.ServiceDate != nil {
		sd := retest.Truncate(*p.ServiceDate)
		rd := s.policy.Next(sd)
		p.ServiceDate = &sd
		p.RetestDate = &rd
	}

	rec, err := s.records.Update(ctx, id, &p)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Запись обслуживания обновлена",
		slog.String("id", id),
		slog.Bool("retest_recomputed", p.RetestDate != nil),
	)
	return rec, nil
}

// Delete удаляет запись.
func (s *ServiceRecordService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Запись обслуживания удалена", slog.String("id", id))
	return nil
}

// PurgeInvalid безвозвратно удаляет записи компании с пустым номером
// сертификата, номером "-" или статусом invalid.
func (s *ServiceRecordService) PurgeInvalid(ctx context.Context, actorSubject, companyID string) (int64, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return 0, validationf("companyId должен быть UUID")
	}

	n, err := s.records.DeleteInvalid(ctx, companyID)
	if err != nil {
		return 0, err
	}

	s.logger.Warn("Удалены некорректные записи обслуживания",
		slog.String("company_id", companyID),
		slog.Int64("deleted_count", n),
		slog.String("actor", actorSubject),
	)
	return n, nil
}

// Due возвращает записи, у которых retest_date наступает в пределах within
// (включая просроченные).
func (s *ServiceRecordService) Due(ctx context.Context, actor rbac.Subject, companyID string, within time.Duration, page repository.Page) ([]*model.ServiceRecord, int, error) {
	scope, ok := rbac.ScopeCompany(actor, companyID)
	if !ok {
		return nil, 0, ErrForbidden
	}
	if within < 0 {
		return nil, 0, validationf("within не может быть отрицательным")
	}
	until := retest.Truncate(s.now()).Add(within)
	filter := repository.ServiceRecordFilter{CompanyID: scope, RetestBefore: &until}

	items, err := s.records.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения записей к повторной проверке: %w", err)
	}
	total, err := s.records.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей к повторной проверке: %w", err)
	}
	return items, total, nil
}

// Certificate собирает представление сертификата: запись, компания, статус.
func (s *ServiceRecordService) Certificate(ctx context.Context, actor rbac.Subject, id string) (*model.Certificate, error) {
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.certificateFor(ctx, rec)
}

func (s *ServiceRecordService) certificateFor(ctx context.Context, rec *model.ServiceRecord) (*model.Certificate, error) {
	company, err := s.companies.GetByID(ctx, rec.CompanyID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return s.certificateWith(rec, company), nil
}

// certificateWith собирает сертификат; статус считается на текущий момент.
func (s *ServiceRecordService) certificateWith(rec *model.ServiceRecord, company *model.Company) *model.Certificate {
	status, days := retest.Status(rec.RetestDate, s.now(), s.dueWindow)
	return &model.Certificate{
		Record:          rec,
		Company:         company,
		Status:          status,
		DaysUntilRetest: days,
	}
}
