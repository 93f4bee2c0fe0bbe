package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// memInspectionRepo — in-memory реализация InspectionRepository для компрессоров.
type memInspectionRepo struct {
	items map[string]*model.CompressorRecord
}

func (m *memInspectionRepo) Create(_ context.Context, rec *model.CompressorRecord) error {
	m.items[rec.ID] = rec
	return nil
}

func (m *memInspectionRepo) GetByID(_ context.Context, id string) (*model.CompressorRecord, error) {
	rec, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memInspectionRepo) List(_ context.Context, companyID string, _ repository.Page) ([]*model.CompressorRecord, error) {
	var out []*model.CompressorRecord
	for _, rec := range m.items {
		if companyID == "" || rec.CompanyID == companyID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memInspectionRepo) Update(_ context.Context, rec *model.CompressorRecord) error {
	if _, ok := m.items[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	m.items[rec.ID] = rec
	return nil
}

func (m *memInspectionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func newCompressorFixture() (*InspectionService[model.CompressorRecord], *memInspectionRepo) {
	repo := &memInspectionRepo{items: map[string]*model.CompressorRecord{}}
	certs := NewCertificateService(&mockSequence{}, testLogger())
	return NewCompressorService(repo, certs, retest.Fixed{Days: retest.FixedOffset}, testLogger()), repo
}

func TestInspection_CreateComputesRetest(t *testing.T) {
	svc, _ := newCompressorFixture()
	rec := &model.CompressorRecord{
		InspectionHeader: model.InspectionHeader{CompanyID: companyA, ServiceDate: date(2024, 1, 15)},
		Manufacturer:     strPtr("Atlas Copco"),
	}

	got, err := svc.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("Create() вернул ошибку: %v", err)
	}
	if !got.RetestDate.Equal(date(2025, 1, 13)) {
		t.Errorf("RetestDate = %v, ожидается 2025-01-13", got.RetestDate)
	}
	if got.CertificateNumber == nil || *got.CertificateNumber != "BWS-1000" {
		t.Errorf("CertificateNumber = %v", got.CertificateNumber)
	}
	if got.ID == "" {
		t.Error("ID не выдан")
	}
}

func TestInspection_UpdateRecomputesRetest(t *testing.T) {
	svc, _ := newCompressorFixture()
	rec, err := svc.Create(context.Background(), &model.CompressorRecord{
		InspectionHeader: model.InspectionHeader{CompanyID: companyA, ServiceDate: date(2024, 1, 15)},
	})
	if err != nil {
		t.Fatal(err)
	}

	rec.ServiceDate = date(2024, 3, 1)
	rec.RetestDate = date(2030, 1, 1)
	got, err := svc.Update(context.Background(), rec)
	if err != nil {
		t.Fatalf("Update() вернул ошибку: %v", err)
	}
	if !got.RetestDate.Equal(date(2025, 2, 28)) {
		t.Errorf("RetestDate = %v, ожидается 2025-02-28", got.RetestDate)
	}
}

func TestInspection_Validation(t *testing.T) {
	svc, _ := newCompressorFixture()
	bad := "not-a-uuid"

	tests := []struct {
		name string
		rec  *model.CompressorRecord
	}{
		{"company_id", &model.CompressorRecord{InspectionHeader: model.InspectionHeader{CompanyID: "x", ServiceDate: date(2024, 1, 1)}}},
		{"service_date", &model.CompressorRecord{InspectionHeader: model.InspectionHeader{CompanyID: companyA}}},
		{"equipment_id", &model.CompressorRecord{InspectionHeader: model.InspectionHeader{CompanyID: companyA, ServiceDate: date(2024, 1, 1), EquipmentID: &bad}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.rec); !errors.Is(err, ErrValidation) {
				t.Errorf("ожидалась ErrValidation, получено %v", err)
			}
		})
	}
}

func TestInspection_TenantScope(t *testing.T) {
	svc, _ := newCompressorFixture()
	ctx := context.Background()
	rec, err := svc.Create(ctx, &model.CompressorRecord{
		InspectionHeader: model.InspectionHeader{CompanyID: companyB, ServiceDate: date(2024, 1, 15)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, customerA, rec.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get чужой записи: ожидалась ErrForbidden, получено %v", err)
	}
	items, err := svc.List(ctx, customerA, "", repository.Page{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("customer видит %d чужих записей", len(items))
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}
