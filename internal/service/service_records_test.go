package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

const (
	companyA = "11111111-1111-1111-1111-111111111111"
	companyB = "22222222-2222-2222-2222-222222222222"
	recordID = "33333333-3333-3333-3333-333333333333"
)

var (
	adminActor    = rbac.Subject{Role: rbac.RoleAdmin}
	engineerActor = rbac.Subject{Role: rbac.RoleEngineer}
	customerA     = rbac.Subject{Role: rbac.RoleCustomer, CompanyID: companyA}
)

func newRecordService(records *mockServiceRecordRepo, companies *mockCompanyRepo) *ServiceRecordService {
	if companies == nil {
		companies = &mockCompanyRepo{}
	}
	certs := NewCertificateService(&mockSequence{}, testLogger())
	return NewServiceRecordService(records, companies, certs, retest.Fixed{Days: retest.FixedOffset}, 30*24*time.Hour, testLogger())
}

func storedRecord() *model.ServiceRecord {
	return &model.ServiceRecord{
		ID:                recordID,
		CompanyID:         companyA,
		CertificateNumber: strPtr("BWS-1000"),
		ServiceDate:       date(2024, 1, 15),
		RetestDate:        date(2025, 1, 13),
	}
}

func TestUpdate_ServiceDateRecomputesRetest(t *testing.T) {
	var got *model.ServiceRecordPatch
	repo := &mockServiceRecordRepo{updateFn: func(_ context.Context, _ string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
		got = p
		return storedRecord(), nil
	}}
	svc := newRecordService(repo, nil)

	sd := date(2024, 3, 1)
	if _, err := svc.Update(context.Background(), recordID, &model.ServiceRecordPatch{ServiceDate: &sd}); err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if got.RetestDate == nil {
		t.Fatal("retest_date должен быть пересчитан")
	}
	if want := date(2025, 2, 28); !got.RetestDate.Equal(want) {
		t.Errorf("retest_date = %s, ожидается %s", got.RetestDate.Format(retest.DateLayout), want.Format(retest.DateLayout))
	}
}

func TestUpdate_ClientRetestIgnored(t *testing.T) {
	var got *model.ServiceRecordPatch
	repo := &mockServiceRecordRepo{updateFn: func(_ context.Context, _ string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
		got = p
		return storedRecord(), nil
	}}
	svc := newRecordService(repo, nil)

	client := date(2030, 1, 1)
	patch := &model.ServiceRecordPatch{RetestDate: &client, Notes: strPtr("проверено")}
	if _, err := svc.Update(context.Background(), recordID, patch); err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if got.RetestDate != nil {
		t.Errorf("retest_date клиента не должен попадать в репозиторий: %v", got.RetestDate)
	}
	if patch.RetestDate == nil {
		t.Error("патч вызывающего не должен изменяться")
	}
}

func TestUpdate_NoDatesKeepsRetest(t *testing.T) {
	var got *model.ServiceRecordPatch
	repo := &mockServiceRecordRepo{updateFn: func(_ context.Context, _ string, p *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
		got = p
		return storedRecord(), nil
	}}
	svc := newRecordService(repo, nil)

	if _, err := svc.Update(context.Background(), recordID, &model.ServiceRecordPatch{EngineerName: strPtr("J. Smith")}); err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if got.RetestDate != nil || got.ServiceDate != nil {
		t.Error("даты не должны передаваться в репозиторий")
	}
	if got.EngineerName == nil || *got.EngineerName != "J. Smith" {
		t.Error("engineer_name потерян")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newRecordService(&mockServiceRecordRepo{}, nil)

	_, err := svc.Update(context.Background(), recordID, &model.ServiceRecordPatch{Notes: strPtr("x")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}

func TestUpdate_ConflictMapped(t *testing.T) {
	repo := &mockServiceRecordRepo{updateFn: func(context.Context, string, *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
		return nil, repository.ErrConflict
	}}
	svc := newRecordService(repo, nil)

	_, err := svc.Update(context.Background(), recordID, &model.ServiceRecordPatch{CertificateNumber: strPtr("BWS-1")})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("ожидалась ErrConflict, получено %v", err)
	}
}

func TestCreate_GeneratesNumberAndRetest(t *testing.T) {
	var stored *model.ServiceRecord
	repo := &mockServiceRecordRepo{createFn: func(_ context.Context, rec *model.ServiceRecord) error {
		stored = rec
		return nil
	}}
	svc := newRecordService(repo, nil)

	rec, err := svc.Create(context.Background(), ServiceRecordInput{
		CompanyID:   companyA,
		ServiceDate: time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if stored != rec {
		t.Error("в репозиторий передана другая запись")
	}
	if rec.CertificateNumber == nil || *rec.CertificateNumber != "BWS-1000" {
		t.Errorf("CertificateNumber = %v, ожидается BWS-1000", rec.CertificateNumber)
	}
	if !rec.ServiceDate.Equal(date(2024, 1, 15)) {
		t.Errorf("ServiceDate = %v, ожидается полночь 2024-01-15", rec.ServiceDate)
	}
	if !rec.RetestDate.Equal(date(2025, 1, 13)) {
		t.Errorf("RetestDate = %v, ожидается 2025-01-13", rec.RetestDate)
	}
	if rec.ID == "" {
		t.Error("ID не выдан")
	}
}

func TestCreate_KeepsGivenNumber(t *testing.T) {
	svc := newRecordService(&mockServiceRecordRepo{}, nil)
	svc.certs.seq = &mockSequence{nextFn: func(context.Context) (int64, error) {
		t.Fatal("последовательность не должна вызываться")
		return 0, nil
	}}

	rec, err := svc.Create(context.Background(), ServiceRecordInput{
		CompanyID:         companyA,
		CertificateNumber: strPtr("BWS-7"),
		ServiceDate:       date(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if *rec.CertificateNumber != "BWS-7" {
		t.Errorf("CertificateNumber = %q", *rec.CertificateNumber)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newRecordService(&mockServiceRecordRepo{}, nil)

	tests := []struct {
		name string
		in   ServiceRecordInput
	}{
		{"некорректный company_id", ServiceRecordInput{CompanyID: "acme", ServiceDate: date(2024, 1, 1)}},
		{"нет service_date", ServiceRecordInput{CompanyID: companyA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, ErrValidation) {
				t.Errorf("ожидалась ErrValidation, получено %v", err)
			}
		})
	}
}

func TestGet_CustomerOtherCompanyForbidden(t *testing.T) {
	repo := &mockServiceRecordRepo{getByIDFn: func(context.Context, string) (*model.ServiceRecord, error) {
		rec := storedRecord()
		rec.CompanyID = companyB
		return rec, nil
	}}
	svc := newRecordService(repo, nil)

	if _, err := svc.Get(context.Background(), customerA, recordID); !errors.Is(err, ErrForbidden) {
		t.Errorf("ожидалась ErrForbidden, получено %v", err)
	}
	if _, err := svc.Get(context.Background(), engineerActor, recordID); err != nil {
		t.Errorf("engineer должен видеть запись: %v", err)
	}
}

func TestList_CustomerScope(t *testing.T) {
	var filter repository.ServiceRecordFilter
	repo := &mockServiceRecordRepo{listFn: func(_ context.Context, f repository.ServiceRecordFilter, _ repository.Page) ([]*model.ServiceRecord, error) {
		filter = f
		return nil, nil
	}}
	svc := newRecordService(repo, nil)

	if _, _, err := svc.List(context.Background(), customerA, "", repository.Page{Limit: 10}); err != nil {
		t.Fatalf("List() вернул ошибку: %v", err)
	}
	if filter.CompanyID != companyA {
		t.Errorf("фильтр компании = %q, ожидается %q", filter.CompanyID, companyA)
	}

	if _, _, err := svc.List(context.Background(), customerA, companyB, repository.Page{Limit: 10}); !errors.Is(err, ErrForbidden) {
		t.Errorf("ожидалась ErrForbidden, получено %v", err)
	}
}

func TestPurgeInvalid(t *testing.T) {
	var gotCompany string
	repo := &mockServiceRecordRepo{deleteInvalidFn: func(_ context.Context, companyID string) (int64, error) {
		gotCompany = companyID
		return 3, nil
	}}
	svc := newRecordService(repo, nil)

	n, err := svc.PurgeInvalid(context.Background(), "admin-1", companyA)
	if err != nil {
		t.Fatalf("PurgeInvalid() вернул ошибку: %v", err)
	}
	if n != 3 || gotCompany != companyA {
		t.Errorf("n = %d, company = %q", n, gotCompany)
	}

	if _, err := svc.PurgeInvalid(context.Background(), "admin-1", "not-a-uuid"); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено %v", err)
	}
}

func TestDue_Window(t *testing.T) {
	var filter, countFilter repository.ServiceRecordFilter
	repo := &mockServiceRecordRepo{
		listFn: func(_ context.Context, f repository.ServiceRecordFilter, _ repository.Page) ([]*model.ServiceRecord, error) {
			filter = f
			return []*model.ServiceRecord{storedRecord()}, nil
		},
		countFn: func(_ context.Context, f repository.ServiceRecordFilter) (int, error) {
			countFilter = f
			return 7, nil
		},
	}
	svc := newRecordService(repo, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }

	items, total, err := svc.Due(context.Background(), adminActor, companyA, 14*24*time.Hour, repository.Page{Limit: 1})
	if err != nil {
		t.Fatalf("Due() вернул ошибку: %v", err)
	}
	if filter.RetestBefore == nil || !filter.RetestBefore.Equal(date(2024, 6, 15)) {
		t.Errorf("RetestBefore = %v, ожидается 2024-06-15", filter.RetestBefore)
	}
	// total — число всех подходящих записей, а не длина страницы
	if len(items) != 1 || total != 7 {
		t.Errorf("len(items) = %d, total = %d, ожидается 1 и 7", len(items), total)
	}
	if countFilter.CompanyID != companyA || countFilter.RetestBefore == nil || !countFilter.RetestBefore.Equal(*filter.RetestBefore) {
		t.Errorf("Count() получил фильтр %+v, ожидается тот же, что у List()", countFilter)
	}

	if _, _, err := svc.Due(context.Background(), adminActor, companyA, -time.Hour, repository.Page{}); !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено %v", err)
	}
}

func TestCertificate_Status(t *testing.T) {
	repo := &mockServiceRecordRepo{getByIDFn: func(context.Context, string) (*model.ServiceRecord, error) {
		return storedRecord(), nil
	}}
	svc := newRecordService(repo, nil)
	svc.now = func() time.Time { return date(2025, 1, 1) }

	cert, err := svc.Certificate(context.Background(), customerA, recordID)
	if err != nil {
		t.Fatalf("Certificate() вернул ошибку: %v", err)
	}
	if cert.Status != model.CertificateStatusDue {
		t.Errorf("Status = %q, ожидается due", cert.Status)
	}
	if cert.DaysUntilRetest != 12 {
		t.Errorf("DaysUntilRetest = %d, ожидается 12", cert.DaysUntilRetest)
	}
	if cert.Company == nil || cert.Company.ID != companyA {
		t.Error("компания не подставлена")
	}
}
