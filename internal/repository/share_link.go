package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
)

// ShareLinkRepository — доступ к таблице share_links.
type ShareLinkRepository interface {
	Create(ctx context.Context, l *model.ShareLink) error
	GetByToken(ctx context.Context, token string) (*model.ShareLink, error)
	// Revoke помечает ссылку отозванной. ErrNotFound, если ссылки нет или она уже отозвана.
	Revoke(ctx context.Context, token string) error
}

type shareLinkRepo struct {
	db DBTX
}

// NewShareLinkRepository создаёт репозиторий публичных ссылок.
func NewShareLinkRepository(db DBTX) ShareLinkRepository {
	return &shareLinkRepo{db: db}
}

func (r *shareLinkRepo) Create(ctx context.Context, l *model.ShareLink) error {
	query := `
		INSERT INTO share_links (token, record_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, l.Token, l.RecordID, l.CreatedBy, l.ExpiresAt).Scan(&l.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: запись обслуживания %s", ErrInvalidReference, l.RecordID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: токен уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания ссылки: %w", err)
	}
	return nil
}

func (r *shareLinkRepo) GetByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	l := &model.ShareLink{}
	err := r.db.QueryRow(ctx, `
		SELECT token, record_id, created_by, created_at, expires_at, revoked_at
		FROM share_links WHERE token = $1`, token,
	).Scan(&l.Token, &l.RecordID, &l.CreatedBy, &l.CreatedAt, &l.ExpiresAt, &l.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ссылки: %w", err)
	}
	return l, nil
}

func (r *shareLinkRepo) Revoke(ctx context.Context, token string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE share_links SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`, token)
	if err != nil {
		return fmt.Errorf("ошибка отзыва ссылки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
