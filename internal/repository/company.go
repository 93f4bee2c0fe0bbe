package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// CompanyRepository — CRUD для таблицы companies.
type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	// List возвращает компании; query — подстрока названия (без учёта регистра).
	List(ctx context.Context, query string, page Page) ([]*model.Company, error)
	Count(ctx context.Context, query string) (int, error)
	Update(ctx context.Context, c *model.Company) error
	// Delete удаляет компанию. ErrReferenced, если у компании есть сертификаты.
	Delete(ctx context.Context, id string) error
}

type companyRepo struct {
	db DBTX
}

// NewCompanyRepository создаёт репозиторий компаний.
func NewCompanyRepository(db DBTX) CompanyRepository {
	return &companyRepo{db: db}
}

const companyColumns = `id, company_name, address, city, county, postcode, country,
	telephone, email, website, industry, notes, created_at, updated_at`

func scanCompany(row pgx.Row) (*model.Company, error) {
	c := &model.Company{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Address, &c.City, &c.County, &c.Postcode, &c.Country,
		&c.Telephone, &c.Email, &c.Website, &c.Industry, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	query := `
		INSERT INTO companies (id, company_name, address, city, county, postcode, country,
			telephone, email, website, industry, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Address, c.City, c.County, c.Postcode, c.Country,
		c.Telephone, c.Email, c.Website, c.Industry, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: компания с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания компании: %w", err)
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, companyColumns)
	c, err := scanCompany(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения компании: %w", err)
	}
	return c, nil
}

func companyFilter(query string) *whereBuilder {
	w := &whereBuilder{}
	if query != "" {
		w.add("LOWER(company_name) LIKE '%%' || LOWER($%d) || '%%'", query)
	}
	return w
}

func (r *companyRepo) List(ctx context.Context, query string, page Page) ([]*model.Company, error) {
	w := companyFilter(query)
	n := w.next()
	sql := fmt.Sprintf(`
		SELECT %s
		FROM companies
		%s
		ORDER BY company_name ASC, id ASC
		LIMIT $%d OFFSET $%d`, companyColumns, w.sql(), n, n+1)

	rows, err := r.db.Query(ctx, sql, append(w.args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка компаний: %w", err)
	}
	defer rows.Close()

	var result []*model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования компании: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *companyRepo) Count(ctx context.Context, query string) (int, error) {
	w := companyFilter(query)
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM companies "+w.sql(), w.args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта компаний: %w", err)
	}
	return count, nil
}

func (r *companyRepo) Update(ctx context.Context, c *model.Company) error {
	query := `
		UPDATE companies
		SET company_name = $2, address = $3, city = $4, county = $5, postcode = $6,
			country = $7, telephone = $8, email = $9, website = $10, industry = $11,
			notes = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Address, c.City, c.County, c.Postcode,
		c.Country, c.Telephone, c.Email, c.Website, c.Industry, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления компании: %w", err)
	}
	return nil
}

func (r *companyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: у компании есть сертификаты", ErrReferenced)
		}
		return fmt.Errorf("ошибка удаления компании: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
