package repository

import (
	"context"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// CompressorRepository — доступ к таблице compressor_records.
type CompressorRepository interface {
	Create(ctx context.Context, rec *model.CompressorRecord) error
	GetByID(ctx context.Context, id string) (*model.CompressorRecord, error)
	List(ctx context.Context, companyID string, page Page) ([]*model.CompressorRecord, error)
	Update(ctx context.Context, rec *model.CompressorRecord) error
	Delete(ctx context.Context, id string) error
}

type compressorRepo struct {
	t *inspectionTable[model.CompressorRecord]
}

// NewCompressorRepository создаёт репозиторий сертификатов компрессоров.
func NewCompressorRepository(db DBTX) CompressorRepository {
	return &compressorRepo{t: &inspectionTable[model.CompressorRecord]{
		db:    db,
		table: "compressor_records",
		label: "сертификат компрессора",
		extra: []string{
			"manufacturer", "model", "serial_number",
			"year_of_manufacture", "safe_working_pressure", "tank_volume_litres",
		},
		header: func(r *model.CompressorRecord) *model.InspectionHeader { return &r.InspectionHeader },
		extraDest: func(r *model.CompressorRecord) []any {
			return []any{
				&r.Manufacturer, &r.Model, &r.SerialNumber,
				&r.YearOfManufacture, &r.SafeWorkingPressure, &r.TankVolumeLitres,
			}
		},
		extraArgs: func(r *model.CompressorRecord) []any {
			return []any{
				r.Manufacturer, r.Model, r.SerialNumber,
				r.YearOfManufacture, r.SafeWorkingPressure, r.TankVolumeLitres,
			}
		},
	}}
}

func (r *compressorRepo) Create(ctx context.Context, rec *model.CompressorRecord) error {
	return r.t.create(ctx, rec)
}

func (r *compressorRepo) GetByID(ctx context.Context, id string) (*model.CompressorRecord, error) {
	return r.t.getByID(ctx, id)
}

func (r *compressorRepo) List(ctx context.Context, companyID string, page Page) ([]*model.CompressorRecord, error) {
	return r.t.list(ctx, companyID, page)
}

func (r *compressorRepo) Update(ctx context.Context, rec *model.CompressorRecord) error {
	return r.t.update(ctx, rec)
}

func (r *compressorRepo) Delete(ctx context.Context, id string) error {
	return r.t.delete(ctx, id)
}
