// share_links.go — публичные ссылки на сертификаты.
// Ссылка и запись читаются из БД на каждый просмотр, поэтому отзыв, удаление
// и правка записи на любом экземпляре видны сразу. В LRU-кэше с TTL
// (hashicorp/golang-lru/v2/expirable) лежат только данные компании для
// сертификата, привязанные к версии записи (updated_at).
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/repository"
)

// Prometheus-метрики кэша публичных сертификатов.
var (
	publicCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eq_public_cache_hits_total",
		Help: "Количество попаданий в кэш публичных сертификатов.",
	})
	publicCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eq_public_cache_misses_total",
		Help: "Количество промахов кэша публичных сертификатов.",
	})
)

// shareTokenBytes — длина случайной части токена (43 символа base64url).
const shareTokenBytes = 32

// publicEntry — данные сертификата для конкретной версии записи.
type publicEntry struct {
	recordVersion time.Time
	company       *model.Company
}

// ShareService — выдача, отзыв и просмотр публичных ссылок.
type ShareService struct {
	links   repository.ShareLinkRepository
	records *ServiceRecordService
	ttl     time.Duration
	cache   *expirable.LRU[string, publicEntry]
	now     func() time.Time
	logger  *slog.Logger
}

// NewShareService создаёт сервис публичных ссылок.
// ttl — срок жизни ссылки; cacheSize и cacheTTL — параметры кэша просмотра.
func NewShareService(
	links repository.ShareLinkRepository,
	records *ServiceRecordService,
	ttl time.Duration,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *ShareService {
	return &ShareService{
		links:   links,
		records: records,
		ttl:     ttl,
		cache:   expirable.NewLRU[string, publicEntry](cacheSize, nil, cacheTTL),
		now:     time.Now,
		logger:  logger.With(slog.String("component", "share_service")),
	}
}

// Create выдаёт ссылку на сертификат записи recordID.
func (s *ShareService) Create(ctx context.Context, actor rbac.Subject, createdBy, recordID string) (*model.ShareLink, error) {
	if _, err := s.records.Get(ctx, actor, recordID); err != nil {
		return nil, err
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	link := &model.ShareLink{
		Token:     token,
		RecordID:  recordID,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, mapRepoErr(err)
	}

	s.logger.Info("Выдана публичная ссылка",
		slog.String("record_id", recordID),
		slog.String("created_by", createdBy),
		slog.Time("expires_at", link.ExpiresAt),
	)
	return link, nil
}

// Revoke отзывает ссылку и удаляет её из кэша.
func (s *ShareService) Revoke(ctx context.Context, token string) error {
	s.cache.Remove(token)
	if err := s.links.Revoke(ctx, token); err != nil {
		return mapRepoErr(err)
	}
	s.logger.Info("Публичная ссылка отозвана")
	return nil
}

// Public возвращает сертификат по токену.
// Отозванные, истёкшие и осиротевшие ссылки дают ErrNotFound.
func (s *ShareService) Public(ctx context.Context, token string) (*model.Certificate, error) {
	now := s.now()

	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		s.cache.Remove(token)
		return nil, mapRepoErr(err)
	}
	if !link.Active(now) {
		s.cache.Remove(token)
		return nil, ErrNotFound
	}

	rec, err := s.records.records.GetByID(ctx, link.RecordID)
	if err != nil {
		s.cache.Remove(token)
		return nil, mapRepoErr(err)
	}

	if e, ok := s.cache.Get(token); ok && e.recordVersion.Equal(rec.UpdatedAt) {
		publicCacheHitsTotal.Inc()
		return s.records.certificateWith(rec, e.company), nil
	}
	publicCacheMissesTotal.Inc()

	cert, err := s.records.certificateFor(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.cache.Add(token, publicEntry{recordVersion: rec.UpdatedAt, company: cert.Company})
	return cert, nil
}

func newShareToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
