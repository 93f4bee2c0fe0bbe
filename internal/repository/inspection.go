package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// Общие столбцы специализированных сертификатов (compressor_records,
// lift_service_records, spot_welder_records).
var inspectionHeaderColumns = []string{
	"id", "company_id", "equipment_id", "certificate_number",
	"service_date", "retest_date", "engineer_name", "status", "notes",
}

// inspectionTable описывает таблицу специализированного сертификата:
// общие столбцы плюс собственные технические столбцы.
type inspectionTable[T any] struct {
	db    DBTX
	table string
	// label — название сущности в сообщениях об ошибках
	label  string
	extra  []string
	header func(*T) *model.InspectionHeader
	// extraDest — указатели на собственные поля в порядке extra
	extraDest func(*T) []any
	// extraArgs — значения собственных полей в порядке extra
	extraArgs func(*T) []any
}

func (t *inspectionTable[T]) columns() string {
	cols := append(append([]string{}, inspectionHeaderColumns...), t.extra...)
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func (t *inspectionTable[T]) scan(row pgx.Row) (*T, error) {
	rec := new(T)
	h := t.header(rec)
	dest := []any{
		&h.ID, &h.CompanyID, &h.EquipmentID, &h.CertificateNumber,
		&h.ServiceDate, &h.RetestDate, &h.EngineerName, &h.Status, &h.Notes,
	}
	dest = append(dest, t.extraDest(rec)...)
	dest = append(dest, &h.CreatedAt, &h.UpdatedAt)
	return rec, row.Scan(dest...)
}

func (t *inspectionTable[T]) headerArgs(rec *T) []any {
	h := t.header(rec)
	return []any{
		h.ID, h.CompanyID, h.EquipmentID, h.CertificateNumber,
		h.ServiceDate, h.RetestDate, h.EngineerName, h.Status, h.Notes,
	}
}

func (t *inspectionTable[T]) create(ctx context.Context, rec *T) error {
	cols := append(append([]string{}, inspectionHeaderColumns...), t.extra...)
	args := append(t.headerArgs(rec), t.extraArgs(rec)...)
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING created_at, updated_at`, t.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	h := t.header(rec)
	if err := t.db.QueryRow(ctx, query, args...).Scan(&h.CreatedAt, &h.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: компания или оборудование не существует", ErrInvalidReference)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s с таким ID уже существует", ErrConflict, t.label)
		}
		return fmt.Errorf("ошибка создания (%s): %w", t.label, err)
	}
	return nil
}

func (t *inspectionTable[T]) getByID(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.columns(), t.table)
	rec, err := t.scan(t.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения (%s): %w", t.label, err)
	}
	return rec, nil
}

func (t *inspectionTable[T]) list(ctx context.Context, companyID string, page Page) ([]*T, error) {
	w := &whereBuilder{}
	if companyID != "" {
		w.add("company_id = $%d", companyID)
	}
	n := w.next()
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY service_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, t.columns(), t.table, w.sql(), n, n+1)

	rows, err := t.db.Query(ctx, query, append(w.args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка (%s): %w", t.label, err)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования (%s): %w", t.label, err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// update перезаписывает все изменяемые столбцы; company_id и created_at не меняются.
func (t *inspectionTable[T]) update(ctx context.Context, rec *T) error {
	cols := append(append([]string{}, inspectionHeaderColumns[2:]...), t.extra...)
	args := append(t.headerArgs(rec), t.extraArgs(rec)...)
	// id остаётся $1, company_id пропускается
	args = append(args[:1], args[2:]...)

	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = $1
		RETURNING company_id, created_at, updated_at`, t.table, strings.Join(sets, ", "))

	h := t.header(rec)
	if err := t.db.QueryRow(ctx, query, args...).Scan(&h.CompanyID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: оборудование не существует", ErrInvalidReference)
		}
		return fmt.Errorf("ошибка обновления (%s): %w", t.label, err)
	}
	return nil
}

func (t *inspectionTable[T]) delete(ctx context.Context, id string) error {
	tag, err := t.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.table), id)
	if err != nil {
		return fmt.Errorf("ошибка удаления (%s): %w", t.label, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
