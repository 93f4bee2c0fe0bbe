package repository

import (
	"context"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// SpotWelderRepository — доступ к таблице spot_welder_records.
type SpotWelderRepository interface {
	Create(ctx context.Context, rec *model.SpotWelderRecord) error
	GetByID(ctx context.Context, id string) (*model.SpotWelderRecord, error)
	List(ctx context.Context, companyID string, page Page) ([]*model.SpotWelderRecord, error)
	Update(ctx context.Context, rec *model.SpotWelderRecord) error
	Delete(ctx context.Context, id string) error
}

type spotWelderRepo struct {
	t *inspectionTable[model.SpotWelderRecord]
}

// NewSpotWelderRepository создаёт репозиторий сертификатов точечной сварки.
func NewSpotWelderRepository(db DBTX) SpotWelderRepository {
	return &spotWelderRepo{t: &inspectionTable[model.SpotWelderRecord]{
		db:    db,
		table: "spot_welder_records",
		label: "сертификат точечной сварки",
		extra: []string{"model", "serial_number", "voltage_max", "voltage_min", "air_pressure", "tip_pressure"},
		header: func(r *model.SpotWelderRecord) *model.InspectionHeader {
			return &r.InspectionHeader
		},
		extraDest: func(r *model.SpotWelderRecord) []any {
			return []any{&r.Model, &r.SerialNumber, &r.VoltageMax, &r.VoltageMin, &r.AirPressure, &r.TipPressure}
		},
		extraArgs: func(r *model.SpotWelderRecord) []any {
			return []any{r.Model, r.SerialNumber, r.VoltageMax, r.VoltageMin, r.AirPressure, r.TipPressure}
		},
	}}
}

func (r *spotWelderRepo) Create(ctx context.Context, rec *model.SpotWelderRecord) error {
	return r.t.create(ctx, rec)
}

func (r *spotWelderRepo) GetByID(ctx context.Context, id string) (*model.SpotWelderRecord, error) {
	return r.t.getByID(ctx, id)
}

func (r *spotWelderRepo) List(ctx context.Context, companyID string, page Page) ([]*model.SpotWelderRecord, error) {
	return r.t.list(ctx, companyID, page)
}

func (r *spotWelderRepo) Update(ctx context.Context, rec *model.SpotWelderRecord) error {
	return r.t.update(ctx, rec)
}

func (r *spotWelderRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}
