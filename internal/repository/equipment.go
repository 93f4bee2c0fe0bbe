package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// EquipmentFilter — фильтры списка оборудования.
type EquipmentFilter struct {
	CompanyID     string
	EquipmentType string
}

// EquipmentRepository — CRUD для таблицы equipment.
type EquipmentRepository interface {
	Create(ctx context.Context, e *model.Equipment) error
	GetByID(ctx context.Context, id string) (*model.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter, page Page) ([]*model.Equipment, error)
	Count(ctx context.Context, filter EquipmentFilter) (int, error)
	Update(ctx context.Context, e *model.Equipment) error
	Delete(ctx context.Context, id string) error
}

type equipmentRepo struct {
	db DBTX
}

// NewEquipmentRepository создаёт репозиторий оборудования.
func NewEquipmentRepository(db DBTX) EquipmentRepository {
	return &equipmentRepo{db: db}
}

const equipmentColumns = `id, company_id, name, equipment_type, manufacturer, model,
	serial_number, location, status, notes, created_at, updated_at`

func scanEquipment(row pgx.Row) (*model.Equipment, error) {
	e := &model.Equipment{}
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.Name, &e.EquipmentType, &e.Manufacturer, &e.Model,
		&e.SerialNumber, &e.Location, &e.Status, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *equipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	query := `
		INSERT INTO equipment (id, company_id, name, equipment_type, manufacturer, model,
			serial_number, location, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.CompanyID, e.Name, e.EquipmentType, e.Manufacturer, e.Model,
		e.SerialNumber, e.Location, e.Status, e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: компания %s", ErrInvalidReference, e.CompanyID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: оборудование с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания оборудования: %w", err)
	}
	return nil
}

func (r *equipmentRepo) GetByID(ctx context.Context, id string) (*model.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE id = $1`, equipmentColumns)
	e, err := scanEquipment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения оборудования: %w", err)
	}
	return e, nil
}

func equipmentWhere(f EquipmentFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.CompanyID != "" {
		w.add("company_id = $%d", f.CompanyID)
	}
	if f.EquipmentType != "" {
		w.add("equipment_type = $%d", f.EquipmentType)
	}
	return w
}

func (r *equipmentRepo) List(ctx context.Context, filter EquipmentFilter, page Page) ([]*model.Equipment, error) {
	w := equipmentWhere(filter)
	n := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM equipment
		%s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d`, equipmentColumns, w.sql(), n, n+1)

	rows, err := r.db.Query(ctx, query, append(w.args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	var result []*model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования оборудования: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *equipmentRepo) Count(ctx context.Context, filter EquipmentFilter) (int, error) {
	w := equipmentWhere(filter)
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM equipment "+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}
	return count, nil
}

func (r *equipmentRepo) Update(ctx context.Context, e *model.Equipment) error {
	query := `
		UPDATE equipment
		SET name = $2, equipment_type = $3, manufacturer = $4, model = $5,
			serial_number = $6, location = $7, status = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING company_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.Name, e.EquipmentType, e.Manufacturer, e.Model,
		e.SerialNumber, e.Location, e.Status, e.Notes,
	).Scan(&e.CompanyID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления оборудования: %w", err)
	}
	return nil
}

func (r *equipmentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления оборудования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
