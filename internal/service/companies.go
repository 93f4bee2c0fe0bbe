// companies.go — сервис компаний, контактов и сводки по компании.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// CompanyService — бизнес-логика компаний и их контактов.
type CompanyService struct {
	companies repository.CompanyRepository
	contacts  repository.ContactRepository
	equipment repository.EquipmentRepository
	records   repository.ServiceRecordRepository
	dueWindow time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCompanyService создаёт сервис компаний.
func NewCompanyService(
	companies repository.CompanyRepository,
	contacts repository.ContactRepository,
	equipment repository.EquipmentRepository,
	records repository.ServiceRecordRepository,
	dueWindow time.Duration,
	logger *slog.Logger,
) *CompanyService {
	return &CompanyService{
		companies: companies,
		contacts:  contacts,
		equipment: equipment,
		records:   records,
		dueWindow: dueWindow,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "company_service")),
	}
}

// List возвращает компании. Customer видит только свою компанию.
func (s *CompanyService) List(ctx context.Context, actor rbac.Subject, query string, page repository.Page) ([]*model.Company, int, error) {
	if actor.Role == rbac.RoleCustomer {
		c, err := s.companies.GetByID(ctx, actor.CompanyID)
		if err != nil {
			return nil, 0, mapRepoErr(err)
		}
		if query != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			return nil, 0, nil
		}
		return []*model.Company{c}, 1, nil
	}

	items, err := s.companies.List(ctx, query, page)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения компаний: %w", err)
	}
	total, err := s.companies.Count(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта компаний: %w", err)
	}
	return items, total, nil
}

// Get возвращает компанию по ID.
func (s *CompanyService) Get(ctx context.Context, actor rbac.Subject, id string) (*model.Company, error) {
	if !rbac.CanAccess(actor, rbac.ActionRead, id) {
		return nil, ErrForbidden
	}
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return c, nil
}

// Create создаёт компанию.
func (s *CompanyService) Create(ctx context.Context, c *model.Company) (*model.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, validationf("company_name обязателен")
	}
	c.ID = uuid.New().String()
	if err := s.companies.Create(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	s.logger.Info("Компания создана", slog.String("id", c.ID), slog.String("name", c.Name))
	return c, nil
}

// Update перезаписывает данные компании.
func (s *CompanyService) Update(ctx context.Context, c *model.Company) (*model.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, validationf("company_name обязателен")
	}
	if err := s.companies.Update(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	return c, nil
}

// Delete удаляет компанию вместе с контактами и оборудованием.
// ErrReferenced, если у компании есть сертификаты.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	if err := s.companies.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Компания удалена", slog.String("id", id))
	return nil
}

// Summary собирает сводку по компании; запросы выполняются параллельно.
func (s *CompanyService) Summary(ctx context.Context, actor rbac.Subject, id string) (*model.CompanySummary, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	today := retest.Truncate(s.now())
	dueUntil := today.Add(s.dueWindow)
	sum := &model.CompanySummary{CompanyID: id}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.equipment.Count(gctx, repository.EquipmentFilter{CompanyID: id})
		sum.EquipmentCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.records.Count(gctx, repository.ServiceRecordFilter{CompanyID: id})
		sum.ServiceRecordCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.records.CountDueBetween(gctx, id, today, dueUntil)
		sum.DueSoonCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.records.CountOverdue(gctx, id, today)
		sum.OverdueCount = n
		return err
	})
	g.Go(func() error {
		latest, err := s.records.LatestServiceDate(gctx, id)
		sum.LatestServiceDate = latest
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ошибка формирования сводки: %w", err)
	}
	return sum, nil
}

// ListContacts возвращает контакты компании.
func (s *CompanyService) ListContacts(ctx context.Context, actor rbac.Subject, companyID string) ([]*model.Contact, error) {
	if _, err := s.Get(ctx, actor, companyID); err != nil {
		return nil, err
	}
	items, err := s.contacts.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения контактов: %w", err)
	}
	return items, nil
}

// CreateContact добавляет контакт компании.
func (s *CompanyService) CreateContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	if c.FirstName == "" {
		return nil, validationf("first_name обязателен")
	}
	if _, err := uuid.Parse(c.CompanyID); err != nil {
		return nil, validationf("company_id должен быть UUID")
	}
	c.ID = uuid.New().String()
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	return c, nil
}

// UpdateContact перезаписывает контакт; компания контакта не меняется.
func (s *CompanyService) UpdateContact(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	if c.FirstName == "" {
		return nil, validationf("first_name обязателен")
	}
	if err := s.contacts.Update(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	return c, nil
}

// DeleteContact удаляет контакт.
func (s *CompanyService) DeleteContact(ctx context.Context, id string) error {
	return mapRepoErr(s.contacts.Delete(ctx, id))
}
