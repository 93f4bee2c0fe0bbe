// inspections.go — сервис специализированных сертификатов
// (компрессоры, подъёмное оборудование, точечная сварка).
// Номер сертификата и дата повторной проверки выдаются по тем же правилам,
// что и для записей обслуживания.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// InspectionRepository — общий контракт репозиториев специализированных сертификатов.
// Реализуется repository.CompressorRepository, LiftServiceRepository, SpotWelderRepository.
type InspectionRepository[T any] interface {
	Create(ctx context.Context, rec *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, companyID string, page repository.Page) ([]*T, error)
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id string) error
}

// InspectionService — CRUD специализированного сертификата типа T.
type InspectionService[T any] struct {
	repo   InspectionRepository[T]
	header func(*T) *model.InspectionHeader
	certs  *CertificateService
	policy retest.Policy
	logger *slog.Logger
}

// NewInspectionService создаёт сервис; header возвращает общие поля записи.
func NewInspectionService[T any](
	kind string,
	repo InspectionRepository[T],
	header func(*T) *model.InspectionHeader,
	certs *CertificateService,
	policy retest.Policy,
	logger *slog.Logger,
) *InspectionService[T] {
	return &InspectionService[T]{
		repo:   repo,
		header: header,
		certs:  certs,
		policy: policy,
		logger: logger.With(slog.String("component", "inspection_service"), slog.String("kind", kind)),
	}
}

// NewCompressorService — сервис сертификатов компрессоров.
func NewCompressorService(repo repository.CompressorRepository, certs *CertificateService, policy retest.Policy, logger *slog.Logger) *InspectionService[model.CompressorRecord] {
	return NewInspectionService[model.CompressorRecord]("compressor", repo,
		func(r *model.CompressorRecord) *model.InspectionHeader { return &r.InspectionHeader },
		certs, policy, logger)
}

// NewLiftServiceService — сервис сертификатов подъёмного оборудования.
func NewLiftServiceService(repo repository.LiftServiceRepository, certs *CertificateService, policy retest.Policy, logger *slog.Logger) *InspectionService[model.LiftServiceRecord] {
	return NewInspectionService[model.LiftServiceRecord]("lift", repo,
		func(r *model.LiftServiceRecord) *model.InspectionHeader { return &r.InspectionHeader },
		certs, policy, logger)
}

// NewSpotWelderService — сервис сертификатов точечной сварки.
func NewSpotWelderService(repo repository.SpotWelderRepository, certs *CertificateService, policy retest.Policy, logger *slog.Logger) *InspectionService[model.SpotWelderRecord] {
	return NewInspectionService[model.SpotWelderRecord]("spot_welder", repo,
		func(r *model.SpotWelderRecord) *model.InspectionHeader { return &r.InspectionHeader },
		certs, policy, logger)
}

// List возвращает сертификаты с учётом компании вызывающего.
func (s *InspectionService[T]) List(ctx context.Context, actor rbac.Subject, companyID string, page repository.Page) ([]*T, error) {
	scope, ok := rbac.ScopeCompany(actor, companyID)
	if !ok {
		return nil, ErrForbidden
	}
	items, err := s.repo.List(ctx, scope, page)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сертификатов: %w", err)
	}
	return items, nil
}

// Get возвращает сертификат по ID.
func (s *InspectionService[T]) Get(ctx context.Context, actor rbac.Subject, id string) (*T, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !rbac.CanAccess(actor, rbac.ActionRead, s.header(rec).CompanyID) {
		return nil, ErrForbidden
	}
	return rec, nil
}

// Create сохраняет сертификат: ID, номер (если не передан) и retest_date выдаются здесь.
func (s *InspectionService[T]) Create(ctx context.Context, rec *T) (*T, error) {
	h := s.header(rec)
	if _, err := uuid.Parse(h.CompanyID); err != nil {
		return nil, validationf("company_id должен быть UUID")
	}
	if err := s.prepare(h); err != nil {
		return nil, err
	}
	if h.CertificateNumber == nil || *h.CertificateNumber == "" {
		num, err := s.certs.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка выдачи номера сертификата: %w", err)
		}
		h.CertificateNumber = &num.Value
	}
	h.ID = uuid.New().String()

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, mapRepoErr(err)
	}
	s.logger.Info("Сертификат создан", slog.String("id", h.ID), slog.String("company_id", h.CompanyID))
	return rec, nil
}

// Update перезаписывает сертификат; retest_date пересчитывается по service_date.
func (s *InspectionService[T]) Update(ctx context.Context, rec *T) (*T, error) {
	if err := s.prepare(s.header(rec)); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, mapRepoErr(err)
	}
	return rec, nil
}

// Delete удаляет сертификат.
func (s *InspectionService[T]) Delete(ctx context.Context, id string) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *InspectionService[T]) prepare(h *model.InspectionHeader) error {
	if h.ServiceDate.IsZero() {
		return validationf("service_date обязателен")
	}
	if h.EquipmentID != nil {
		if _, err := uuid.Parse(*h.EquipmentID); err != nil {
			return validationf("equipment_id должен быть UUID")
		}
	}
	h.ServiceDate = retest.Truncate(h.ServiceDate)
	h.RetestDate = s.policy.Next(h.ServiceDate)
	return nil
}
