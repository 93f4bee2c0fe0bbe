// equipment.go — сервис оборудования клиентов.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// EquipmentService — бизнес-логика оборудования.
type EquipmentService struct {
	repo repository.EquipmentRepository
}

// NewEquipmentService создаёт сервис оборудования.
func NewEquipmentService(repo repository.EquipmentRepository) *EquipmentService {
	return &EquipmentService{repo: repo}
}

// List возвращает оборудование с учётом компании вызывающего.
func (s *EquipmentService) List(ctx context.Context, actor rbac.Subject, filter repository.EquipmentFilter, page repository.Page) ([]*model.Equipment, int, error) {
	scope, ok := rbac.ScopeCompany(actor, filter.CompanyID)
	if !ok {
		return nil, 0, ErrForbidden
	}
	filter.CompanyID = scope

	items, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения оборудования: %w", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}
	return items, total, nil
}

// Get возвращает оборудование по ID.
func (s *EquipmentService) Get(ctx context.Context, actor rbac.Subject, id string) (*model.Equipment, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !rbac.CanAccess(actor, rbac.ActionRead, e.CompanyID) {
		return nil, ErrForbidden
	}
	return e, nil
}

func validateEquipment(e *model.Equipment) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return validationf("name обязателен")
	}
	if !model.IsValidEquipmentType(e.EquipmentType) {
		return validationf("неизвестный equipment_type %q", e.EquipmentType)
	}
	if e.Status == "" {
		e.Status = "active"
	}
	return nil
}

// Create регистрирует оборудование.
func (s *EquipmentService) Create(ctx context.Context, e *model.Equipment) (*model.Equipment, error) {
	if _, err := uuid.Parse(e.CompanyID); err != nil {
		return nil, validationf("company_id должен быть UUID")
	}
	if err := validateEquipment(e); err != nil {
		return nil, err
	}
	e.ID = uuid.New().String()
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, mapRepoErr(err)
	}
	return e, nil
}

// Update перезаписывает оборудование; компания не меняется.
func (s *EquipmentService) Update(ctx context.Context, e *model.Equipment) (*model.Equipment, error) {
	if err := validateEquipment(e); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, mapRepoErr(err)
	}
	return e, nil
}

// Delete удаляет оборудование.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}
