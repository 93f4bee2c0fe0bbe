package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// ServiceRecordFilter — фильтры списка записей обслуживания.
type ServiceRecordFilter struct {
	CompanyID string
	// RetestBefore — только записи с retest_date <= RetestBefore
	RetestBefore *time.Time
}

// ServiceRecordRepository — доступ к таблице service_records.
type ServiceRecordRepository interface {
	Create(ctx context.Context, rec *model.ServiceRecord) error
	GetByID(ctx context.Context, id string) (*model.ServiceRecord, error)
	List(ctx context.Context, filter ServiceRecordFilter, page Page) ([]*model.ServiceRecord, error)
	Count(ctx context.Context, filter ServiceRecordFilter) (int, error)
	// Update применяет патч и возвращает обновлённую запись.
	// ErrNotFound, если запись не найдена; в этом случае ничего не меняется.
	Update(ctx context.Context, id string, patch *model.ServiceRecordPatch) (*model.ServiceRecord, error)
	Delete(ctx context.Context, id string) error
	// DeleteInvalid удаляет записи компании с пустым или заглушечным номером
	// сертификата либо со статусом invalid. Возвращает число удалённых строк.
	DeleteInvalid(ctx context.Context, companyID string) (int64, error)
	// CountOverdue — записи компании с retest_date < today.
	CountOverdue(ctx context.Context, companyID string, today time.Time) (int, error)
	// CountDueBetween — записи компании с from <= retest_date <= until.
	CountDueBetween(ctx context.Context, companyID string, from, until time.Time) (int, error)
	// LatestServiceDate — максимальная service_date компании (nil, если записей нет).
	LatestServiceDate(ctx context.Context, companyID string) (*time.Time, error)
}

type serviceRecordRepo struct {
	db DBTX
}

// NewServiceRecordRepository создаёт репозиторий записей обслуживания.
func NewServiceRecordRepository(db DBTX) ServiceRecordRepository {
	return &serviceRecordRepo{db: db}
}

// equipmentColumnNames возвращает имена столбцов позиции оборудования i (с нуля).
func equipmentColumnNames(i int) (name, serial string) {
	return fmt.Sprintf("equipment%d_name", i+1), fmt.Sprintf("equipment%d_serial", i+1)
}

// serviceRecordColumns — полный список столбцов service_records в порядке сканирования.
var serviceRecordColumns = func() string {
	cols := []string{"id", "company_id", "certificate_number", "service_date", "retest_date", "engineer_name"}
	for i := range model.EquipmentSlots {
		n, s := equipmentColumnNames(i)
		cols = append(cols, n, s)
	}
	cols = append(cols, "status", "notes", "created_at", "updated_at")
	return strings.Join(cols, ", ")
}()

func scanServiceRecord(row pgx.Row) (*model.ServiceRecord, error) {
	rec := &model.ServiceRecord{}
	dest := []any{
		&rec.ID, &rec.CompanyID, &rec.CertificateNumber, &rec.ServiceDate, &rec.RetestDate, &rec.EngineerName,
	}
	for i := range rec.Equipment {
		dest = append(dest, &rec.Equipment[i].Name, &rec.Equipment[i].Serial)
	}
	dest = append(dest, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, row.Scan(dest...)
}

func (r *serviceRecordRepo) Create(ctx context.Context, rec *model.ServiceRecord) error {
	cols := []string{"id", "company_id", "certificate_number", "service_date", "retest_date", "engineer_name"}
	args := []any{rec.ID, rec.CompanyID, rec.CertificateNumber, rec.ServiceDate, rec.RetestDate, rec.EngineerName}
	for i, l := range rec.Equipment {
		n, s := equipmentColumnNames(i)
		cols = append(cols, n, s)
		args = append(args, l.Name, l.Serial)
	}
	cols = append(cols, "status", "notes")
	args = append(args, rec.Status, rec.Notes)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO service_records (%s)
		VALUES (%s)
		RETURNING created_at, updated_at`, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if err := r.db.QueryRow(ctx, query, args...).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: номер сертификата уже используется", ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: компания %s", ErrInvalidReference, rec.CompanyID)
		}
		return fmt.Errorf("ошибка создания записи обслуживания: %w", err)
	}
	return nil
}

func (r *serviceRecordRepo) GetByID(ctx context.Context, id string) (*model.ServiceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_records WHERE id = $1`, serviceRecordColumns)
	rec, err := scanServiceRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи обслуживания: %w", err)
	}
	return rec, nil
}

func serviceRecordWhere(f ServiceRecordFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.CompanyID != "" {
		w.add("company_id = $%d", f.CompanyID)
	}
	if f.RetestBefore != nil {
		w.add("retest_date <= $%d", *f.RetestBefore)
	}
	return w
}

func (r *serviceRecordRepo) List(ctx context.Context, filter ServiceRecordFilter, page Page) ([]*model.ServiceRecord, error) {
	w := serviceRecordWhere(filter)
	order := "service_date DESC, created_at DESC"
	if filter.RetestBefore != nil {
		order = "retest_date ASC, id ASC"
	}
	n := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM service_records
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, serviceRecordColumns, w.sql(), order, n, n+1)

	rows, err := r.db.Query(ctx, query, append(w.args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей обслуживания: %w", err)
	}
	defer rows.Close()

	var result []*model.ServiceRecord
	for rows.Next() {
		rec, err := scanServiceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи обслуживания: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *serviceRecordRepo) Count(ctx context.Context, filter ServiceRecordFilter) (int, error) {
	w := serviceRecordWhere(filter)
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM service_records "+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей обслуживания: %w", err)
	}
	return count, nil
}

// buildServiceRecordUpdate строит UPDATE только из заданных полей патча.
// updated_at = NOW() добавляется всегда; $1 — id записи.
func buildServiceRecordUpdate(id string, p *model.ServiceRecordPatch) (string, []any) {
	args := []any{id}
	var sets []string
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.CertificateNumber != nil {
		set("certificate_number", *p.CertificateNumber)
	}
	if p.ServiceDate != nil {
		set("service_date", *p.ServiceDate)
	}
	if p.EngineerName != nil {
		set("engineer_name", *p.EngineerName)
	}
	for i, l := range p.Equipment {
		n, s := equipmentColumnNames(i)
		if l.Name != nil {
			set(n, *l.Name)
		}
		if l.Serial != nil {
			set(s, *l.Serial)
		}
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Notes != nil {
		set("notes", *p.Notes)
	}
	if p.RetestDate != nil {
		set("retest_date", *p.RetestDate)
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE service_records
		SET %s
		WHERE id = $1
		RETURNING %s`, strings.Join(sets, ", "), serviceRecordColumns)
	return query, args
}

func (r *serviceRecordRepo) Update(ctx context.Context, id string, patch *model.ServiceRecordPatch) (*model.ServiceRecord, error) {
	query, args := buildServiceRecordUpdate(id, patch)
	rec, err := scanServiceRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: номер сертификата уже используется", ErrConflict)
		}
		return nil, fmt.Errorf("ошибка обновления записи обслуживания: %w", err)
	}
	return rec, nil
}

func (r *serviceRecordRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи обслуживания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// purgeInvalidQuery — критерий «некорректной» записи для массовой очистки.
const purgeInvalidQuery = `
	DELETE FROM service_records
	WHERE company_id = $1
	  AND (certificate_number IS NULL
	       OR certificate_number IN ('', '-')
	       OR LOWER(status) = 'invalid')`

func (r *serviceRecordRepo) DeleteInvalid(ctx context.Context, companyID string) (int64, error) {
	tag, err := r.db.Exec(ctx, purgeInvalidQuery, companyID)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки некорректных записей: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *serviceRecordRepo) CountOverdue(ctx context.Context, companyID string, today time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_records WHERE company_id = $1 AND retest_date < $2`,
		companyID, today,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта просроченных записей: %w", err)
	}
	return count, nil
}

func (r *serviceRecordRepo) CountDueBetween(ctx context.Context, companyID string, from, until time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_records
		 WHERE company_id = $1 AND retest_date >= $2 AND retest_date <= $3`,
		companyID, from, until,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей к повторной проверке: %w", err)
	}
	return count, nil
}

func (r *serviceRecordRepo) LatestServiceDate(ctx context.Context, companyID string) (*time.Time, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT MAX(service_date) FROM service_records WHERE company_id = $1`, companyID,
	).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения даты последнего обслуживания: %w", err)
	}
	return latest, nil
}
