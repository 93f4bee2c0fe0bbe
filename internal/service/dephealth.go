// dephealth.go — мониторинг PostgreSQL через topologymetrics SDK.
// Проверка идёт через тот же pgxpool (обёрнутый в *sql.DB), зависимость critical.
// Метрики app_dependency_health и app_dependency_latency_seconds
// публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
)

const postgresDependency = "postgresql"

// DephealthService — периодическая проверка зависимостей EquipTrak.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService регистрирует PostgreSQL как единственную зависимость.
// pgURL используется только для лейблов метрик, без пароля.
// extra — дополнительные опции SDK (в тестах WithRegisterer).
func NewDephealthService(
	serviceID, group string,
	db *sql.DB,
	pgURL string,
	interval time.Duration,
	logger *slog.Logger,
	extra ...dephealth.Option,
) (*DephealthService, error) {
	opts := append([]dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency(postgresDependency, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(pgURL),
			dephealth.CheckInterval(interval),
			dephealth.Critical(true),
		),
	}, extra...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}
	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает проверки в фоне.
func (ds *DephealthService) Start(ctx context.Context) error {
	if err := ds.dh.Start(ctx); err != nil {
		return err
	}
	ds.logger.Info("Мониторинг PostgreSQL запущен")
	return nil
}

// Stop останавливает проверки.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг PostgreSQL остановлен")
}

// Health — последнее состояние зависимостей: имя -> healthy.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
