// Пакет server — HTTP-сервер EquipTrak с graceful shutdown.
// Без TLS: TLS termination выполняется на ingress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Paul-BWS/equiptrak/internal/api/handlers"
	"github.com/Paul-BWS/equiptrak/internal/api/middleware"
	"github.com/Paul-BWS/equiptrak/internal/config"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
)

// Server — HTTP-сервер EquipTrak.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// validator может быть nil: валидация по OpenAPI тогда отключена.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	h *handlers.APIHandler,
	authn *middleware.Authenticator,
	validator *middleware.RequestValidator,
) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, h, authn, validator),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты API.
// Публичные: /health/*, /metrics, /api/auth/login, /public/certificates/{token}.
// Остальные /api/* требуют аутентификации; запись — admin или engineer,
// удаление и очистка — только admin.
func NewRouter(
	logger *slog.Logger,
	h *handlers.APIHandler,
	authn *middleware.Authenticator,
	validator *middleware.RequestValidator,
) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую
	router.Get("/health/live", h.Health().HealthLive)
	router.Get("/health/ready", h.Health().HealthReady)
	router.Get("/metrics", h.Health().GetMetrics)

	router.Get("/public/certificates/{token}", h.PublicCertificate)

	write := middleware.RequireAction(rbac.ActionWrite)
	del := middleware.RequireAction(rbac.ActionDelete)
	purge := middleware.RequireAction(rbac.ActionPurge)

	validate := func(next http.Handler) http.Handler { return next }
	if validator != nil {
		validate = validator.Middleware()
	}

	router.Route("/api", func(r chi.Router) {
		r.With(validate).Post("/auth/login", h.Login)

		// Сначала аутентификация: без токена ответ 401, а не 400
		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware())
			r.Use(validate)

			r.Get("/auth/me", h.Me)
			r.With(write).Get("/generate-certificate-number", h.GenerateCertificateNumber)

			r.Route("/service-records", func(r chi.Router) {
				r.Get("/", h.ListServiceRecords)
				r.With(write).Post("/", h.CreateServiceRecord)
				r.Get("/due", h.DueServiceRecords)
				r.With(purge).Delete("/delete-test-data", h.PurgeInvalidServiceRecords)
				r.Get("/{id}", h.GetServiceRecord)
				r.With(write).Put("/{id}", h.UpdateServiceRecord)
				r.With(del).Delete("/{id}", h.DeleteServiceRecord)
				r.Get("/{id}/certificate", h.GetCertificate)
				r.With(write).Post("/{id}/share", h.CreateShareLink)
			})
			r.With(write).Delete("/share-links/{token}", h.RevokeShareLink)

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", h.ListCompanies)
				r.With(write).Post("/", h.CreateCompany)
				r.Get("/{id}", h.GetCompany)
				r.With(write).Put("/{id}", h.UpdateCompany)
				r.With(del).Delete("/{id}", h.DeleteCompany)
				r.Get("/{id}/summary", h.CompanySummary)
				r.Get("/{id}/contacts", h.ListContacts)
				r.With(write).Post("/{id}/contacts", h.CreateContact)
				r.Get("/{id}/service-records/export", h.ExportServiceRecords)
			})
			r.With(write).Put("/contacts/{id}", h.UpdateContact)
			r.With(del).Delete("/contacts/{id}", h.DeleteContact)

			r.Route("/equipment", func(r chi.Router) {
				r.Get("/", h.ListEquipment)
				r.With(write).Post("/", h.CreateEquipment)
				r.Get("/{id}", h.GetEquipment)
				r.With(write).Put("/{id}", h.UpdateEquipment)
				r.With(del).Delete("/{id}", h.DeleteEquipment)
			})

			mountInspections(r, "/compressors", h.Compressors(), write, del)
			mountInspections(r, "/lift-service-records", h.LiftServices(), write, del)
			mountInspections(r, "/spot-welder-records", h.SpotWelders(), write, del)
		})
	})

	return router
}

// inspectionRoutes — обработчики CRUD одного вида сертификатов.
type inspectionRoutes interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func mountInspections(r chi.Router, prefix string, h inspectionRoutes, write, del func(http.Handler) http.Handler) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", h.List)
		r.With(write).Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.With(write).Put("/{id}", h.Update)
		r.With(del).Delete("/{id}", h.Delete)
	})
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	return s.Shutdown(context.Background())
}

// Shutdown останавливает сервер, дожидаясь активных запросов не дольше ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
