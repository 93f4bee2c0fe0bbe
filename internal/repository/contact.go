package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// ContactRepository — CRUD для таблицы contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	// ListByCompany возвращает контакты компании: сначала основной, затем по имени.
	ListByCompany(ctx context.Context, companyID string) ([]*model.Contact, error)
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id string) error
}

type contactRepo struct {
	db DBTX
}

// NewContactRepository создаёт репозиторий контактов.
func NewContactRepository(db DBTX) ContactRepository {
	return &contactRepo{db: db}
}

const contactColumns = `id, company_id, first_name, last_name, email, telephone, mobile,
	job_title, is_primary, has_system_access, created_at, updated_at`

func scanContact(row pgx.Row) (*model.Contact, error) {
	c := &model.Contact{}
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Email, &c.Telephone, &c.Mobile,
		&c.JobTitle, &c.IsPrimary, &c.HasSystemAccess, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *contactRepo) Create(ctx context.Context, c *model.Contact) error {
	query := `
		INSERT INTO contacts (id, company_id, first_name, last_name, email, telephone, mobile,
			job_title, is_primary, has_system_access)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.CompanyID, c.FirstName, c.LastName, c.Email, c.Telephone, c.Mobile,
		c.JobTitle, c.IsPrimary, c.HasSystemAccess,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: компания %s", ErrInvalidReference, c.CompanyID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: контакт с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания контакта: %w", err)
	}
	return nil
}

func (r *contactRepo) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1`, contactColumns)
	c, err := scanContact(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения контакта: %w", err)
	}
	return c, nil
}

func (r *contactRepo) ListByCompany(ctx context.Context, companyID string) ([]*model.Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contacts
		WHERE company_id = $1
		ORDER BY is_primary DESC, first_name ASC, id ASC`, contactColumns)

	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения контактов: %w", err)
	}
	defer rows.Close()

	var result []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования контакта: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *contactRepo) Update(ctx context.Context, c *model.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $2, last_name = $3, email = $4, telephone = $5, mobile = $6,
			job_title = $7, is_primary = $8, has_system_access = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING company_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.FirstName, c.LastName, c.Email, c.Telephone, c.Mobile,
		c.JobTitle, c.IsPrimary, c.HasSystemAccess,
	).Scan(&c.CompanyID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления контакта: %w", err)
	}
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления контакта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
