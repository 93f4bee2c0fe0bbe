package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

func newCompanyService(companies *mockCompanyRepo, records *mockServiceRecordRepo, equipment *mockEquipmentRepo) *CompanyService {
	if companies == nil {
		companies = &mockCompanyRepo{}
	}
	if records == nil {
		records = &mockServiceRecordRepo{}
	}
	if equipment == nil {
		equipment = &mockEquipmentRepo{}
	}
	return NewCompanyService(companies, &mockContactRepo{}, equipment, records, 30*24*time.Hour, testLogger())
}

func TestCompanySummary(t *testing.T) {
	latest := date(2024, 5, 20)
	var dueFrom, dueUntil time.Time
	records := &mockServiceRecordRepo{
		countFn: func(context.Context, repository.ServiceRecordFilter) (int, error) { return 12, nil },
		countDueBetweenFn: func(_ context.Context, _ string, from, until time.Time) (int, error) {
			dueFrom, dueUntil = from, until
			return 2, nil
		},
		countOverdueFn:      func(context.Context, string, time.Time) (int, error) { return 1, nil },
		latestServiceDateFn: func(context.Context, string) (*time.Time, error) { return &latest, nil },
	}
	equipment := &mockEquipmentRepo{countFn: func(context.Context, repository.EquipmentFilter) (int, error) { return 5, nil }}
	svc := newCompanyService(nil, records, equipment)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	sum, err := svc.Summary(context.Background(), customerA, companyA)
	if err != nil {
		t.Fatalf("Summary() вернул ошибку: %v", err)
	}
	if sum.EquipmentCount != 5 || sum.ServiceRecordCount != 12 || sum.DueSoonCount != 2 || sum.OverdueCount != 1 {
		t.Errorf("сводка = %+v", sum)
	}
	if sum.LatestServiceDate == nil || !sum.LatestServiceDate.Equal(latest) {
		t.Errorf("LatestServiceDate = %v", sum.LatestServiceDate)
	}
	if !dueFrom.Equal(date(2024, 6, 1)) || !dueUntil.Equal(date(2024, 7, 1)) {
		t.Errorf("окно due = %v..%v", dueFrom, dueUntil)
	}
}

func TestCompanySummary_ErrorPropagates(t *testing.T) {
	records := &mockServiceRecordRepo{
		countOverdueFn: func(context.Context, string, time.Time) (int, error) { return 0, errors.New("connection reset") },
	}
	svc := newCompanyService(nil, records, nil)

	if _, err := svc.Summary(context.Background(), adminActor, companyA); err == nil {
		t.Fatal("ожидалась ошибка")
	}
}

func TestCompanySummary_ForeignCompany(t *testing.T) {
	svc := newCompanyService(nil, nil, nil)
	if _, err := svc.Summary(context.Background(), customerA, companyB); !errors.Is(err, ErrForbidden) {
		t.Errorf("ожидалась ErrForbidden, получено %v", err)
	}
}

func TestCompanyList_CustomerSeesOwn(t *testing.T) {
	companies := &mockCompanyRepo{listFn: func(context.Context, string, repository.Page) ([]*model.Company, error) {
		t.Fatal("customer не должен получать общий список")
		return nil, nil
	}}
	svc := newCompanyService(companies, nil, nil)

	items, total, err := svc.List(context.Background(), customerA, "", repository.Page{Limit: 20})
	if err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != companyA {
		t.Errorf("items = %v, total = %d", items, total)
	}

	items, total, err = svc.List(context.Background(), customerA, "unrelated", repository.Page{Limit: 20})
	if err != nil || total != 0 || len(items) != 0 {
		t.Errorf("фильтр по названию: items = %v, total = %d, err = %v", items, total, err)
	}
}

func TestCompanyCreate(t *testing.T) {
	svc := newCompanyService(nil, nil, nil)

	c, err := svc.Create(context.Background(), &model.Company{Name: "  Acme Garage  "})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if c.Name != "Acme Garage" || c.ID == "" {
		t.Errorf("компания = %+v", c)
	}

	if _, err := svc.Create(context.Background(), &model.Company{Name: "   "}); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено %v", err)
	}
}

func TestCompanyDelete_Referenced(t *testing.T) {
	companies := &mockCompanyRepo{deleteFn: func(context.Context, string) error { return repository.ErrReferenced }}
	svc := newCompanyService(companies, nil, nil)

	if err := svc.Delete(context.Background(), companyA); !errors.Is(err, ErrReferenced) {
		t.Errorf("ожидалась ErrReferenced, получено %v", err)
	}
}

func TestCreateContact_Validation(t *testing.T) {
	svc := newCompanyService(nil, nil, nil)

	if _, err := svc.CreateContact(context.Background(), &model.Contact{CompanyID: companyA}); !errors.Is(err, ErrValidation) {
		t.Errorf("пустое имя: ожидалась ErrValidation, получено %v", err)
	}
	c, err := svc.CreateContact(context.Background(), &model.Contact{CompanyID: companyA, FirstName: " Jane "})
	if err != nil {
		t.Fatalf("CreateContact() вернул ошибку: %v", err)
	}
	if c.FirstName != "Jane" || c.ID == "" {
		t.Errorf("контакт = %+v", c)
	}
}
