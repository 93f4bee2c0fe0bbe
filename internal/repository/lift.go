package repository

import (
	"context"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// LiftServiceRepository — доступ к таблице lift_service_records.
type LiftServiceRepository interface {
	Create(ctx context.Context, rec *model.LiftServiceRecord) error
	GetByID(ctx context.Context, id string) (*model.LiftServiceRecord, error)
	List(ctx context.Context, companyID string, page Page) ([]*model.LiftServiceRecord, error)
	Update(ctx context.Context, rec *model.LiftServiceRecord) error
	Delete(ctx context.Context, id string) error
}

type liftServiceRepo struct {
	t *inspectionTable[model.LiftServiceRecord]
}

// NewLiftServiceRepository создаёт репозиторий сертификатов подъёмного оборудования.
func NewLiftServiceRepository(db DBTX) LiftServiceRepository {
	return &liftServiceRepo{t: &inspectionTable[model.LiftServiceRecord]{
		db:    db,
		table: "lift_service_records",
		label: "сертификат подъёмного оборудования",
		extra: []string{"lift_type", "manufacturer", "model", "serial_number", "safe_working_load", "defects"},
		header: func(r *model.LiftServiceRecord) *model.InspectionHeader {
			return &r.InspectionHeader
		},
		extraDest: func(r *model.LiftServiceRecord) []any {
			return []any{&r.LiftType, &r.Manufacturer, &r.Model, &r.SerialNumber, &r.SafeWorkingLoad, &r.Defects}
		},
		extraArgs: func(r *model.LiftServiceRecord) []any {
			return []any{r.LiftType, r.Manufacturer, r.Model, r.SerialNumber, r.SafeWorkingLoad, r.Defects}
		},
	}}
}

func (r *liftServiceRepo) Create(ctx context.Context, rec *model.LiftServiceRecord) error {
	return r.t.create(ctx, rec)
}

func (r *liftServiceRepo) GetByID(ctx context.Context, id string) (*model.LiftServiceRecord, error) {
	return r.t.getByID(ctx, id)
}

func (r *liftServiceRepo) List(ctx context.Context, companyID string, page Page) ([]*model.LiftServiceRecord, error) {
	return r.t.list(ctx, companyID, page)
}

func (r *liftServiceRepo) Update(ctx context.Context, rec *model.LiftServiceRecord) error {
	return r.t.update(ctx, rec)
}

func (r *liftServiceRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}
