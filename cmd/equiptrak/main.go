// Точка входа EquipTrak — учёт оборудования клиентов и сертификатов обслуживания.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт репозитории, сервисный слой и API handlers, выбирает провайдер
// аутентификации, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Paul-BWS/equiptrak/internal/api/handlers"
	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
	"github.com/Paul-BWS/equiptrak/internal/api/openapi"
	"github.com/Paul-BWS/equiptrak/internal/auth"
	"github.com/Paul-BWS/equiptrak/internal/config"
	"github.com/Paul-BWS/equiptrak/internal/database"
	"github.com/Paul-BWS/equiptrak/internal/domain/retest"
	"github.com/Paul-BWS/equiptrak/internal/repository"
	"github.com/Paul-BWS/equiptrak/internal/server"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("EquipTrak запускается",
		slog.String("version", config.Version),
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("auth_mode", cfg.AuthMode),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Политика даты повторной проверки
	policy, err := retest.New(cfg.RetestPolicy)
	if err != nil {
		logger.Error("Ошибка политики retest", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Repositories
	recordRepo := repository.NewServiceRecordRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	shareRepo := repository.NewShareLinkRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// 7. Аутентификация: провайдер выбирается один раз при старте
	provider, err := auth.NewProvider(cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации аутентификации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var issuer *auth.TokenIssuer
	if cfg.AuthMode == config.AuthModeHMAC {
		issuer = auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	}

	// 8. Services
	certSvc := service.NewCertificateService(repository.NewCertificateSequence(pool), logger)
	recordSvc := service.NewServiceRecordService(recordRepo, companyRepo, certSvc, policy, cfg.DueSoonWindow, logger)
	services := handlers.Services{
		Certificates:   certSvc,
		ServiceRecords: recordSvc,
		Companies:      service.NewCompanyService(companyRepo, contactRepo, equipmentRepo, recordRepo, cfg.DueSoonWindow, logger),
		Equipment:      service.NewEquipmentService(equipmentRepo),
		Compressors:    service.NewCompressorService(repository.NewCompressorRepository(pool), certSvc, policy, logger),
		LiftServices:   service.NewLiftServiceService(repository.NewLiftServiceRepository(pool), certSvc, policy, logger),
		SpotWelders:    service.NewSpotWelderService(repository.NewSpotWelderRepository(pool), certSvc, policy, logger),
		Shares: service.NewShareService(shareRepo, recordSvc,
			cfg.ShareLinkTTL, cfg.PublicCacheSize, cfg.PublicCacheTTL, logger),
		Export: service.NewExportService(recordSvc, companyRepo),
		Auth:   service.NewAuthService(userRepo, issuer, logger),
	}

	// 9. API handler
	apiHandler := handlers.NewAPIHandler(
		handlers.NewHealthHandler(database.NewReadinessChecker(pool)),
		services,
		logger,
	)

	// 10. OpenAPI-валидация запросов
	var validator *middleware.RequestValidator
	if cfg.OpenAPIValidation {
		doc, err := openapi.Load(ctx)
		if err != nil {
			logger.Error("Ошибка загрузки OpenAPI-документа", slog.String("error", err.Error()))
			os.Exit(1)
		}
		validator, err = middleware.NewRequestValidator(doc, logger)
		if err != nil {
			logger.Error("Ошибка создания OpenAPI-валидатора", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("OpenAPI-валидация запросов включена")
	}

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL)
	var dephealthSvc *service.DephealthService
	if cfg.DephealthEnabled {
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			"equiptrak",
			cfg.DephealthGroup,
			pgDB,
			cfg.DatabaseURL(),
			cfg.DephealthCheckInterval,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
			dephealthSvc = nil
		} else {
			apiHandler.Health().SetDependencies(dephealthSvc)
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера
	authn := middleware.NewAuthenticator(provider, logger)
	srv := server.New(cfg, logger, apiHandler, authn, validator)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("EquipTrak остановлен")
}
