// health.go — health endpoints EquipTrak.
// /health/live — процесс жив, /health/ready — PostgreSQL доступен,
// /metrics — Prometheus метрики.
package handlers

import (
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paul-BWS/equiptrak/internal/config"
)

const serviceName = "equiptrak"

// ReadinessChecker проверяет готовность PostgreSQL.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// DependencyReporter — последнее известное состояние зависимостей
// (реализуется service.DephealthService).
type DependencyReporter interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	db          ReadinessChecker
	deps        atomic.Pointer[DependencyReporter]
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// db может быть nil: readiness тогда вернёт fail.
func NewHealthHandler(db ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		db:          db,
		promHandler: promhttp.Handler(),
	}
}

// SetDependencies подключает отчёт мониторинга зависимостей к readiness.
// Мониторинг запускается после создания обработчика, поэтому отдельный setter.
func (h *HealthHandler) SetDependencies(r DependencyReporter) {
	h.deps.Store(&r)
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type healthReadyResponse struct {
	healthLiveResponse
	Database     healthCheckResult `json:"database"`
	Dependencies []dependencyState `json:"dependencies,omitempty"`
}

type dependencyState struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
}

func newLiveResponse(status string) healthLiveResponse {
	return healthLiveResponse{
		Status:    status,
		Service:   serviceName,
		Version:   config.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HealthLive всегда отвечает 200, пока процесс обслуживает запросы.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newLiveResponse("ok"))
}

// HealthReady отвечает 503, если PostgreSQL недоступен.
// Состояние из мониторинга зависимостей только информирует и на код не влияет.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	db := healthCheckResult{Status: "fail", Message: "не инициализирован"}
	if h.db != nil {
		status, msg := h.db.CheckReady()
		db = healthCheckResult{Status: status, Message: msg}
	}

	resp := healthReadyResponse{
		healthLiveResponse: newLiveResponse(db.Status),
		Database:           db,
	}
	if p := h.deps.Load(); p != nil {
		for name, ok := range (*p).Health() {
			resp.Dependencies = append(resp.Dependencies, dependencyState{Name: name, Healthy: ok})
		}
		sort.Slice(resp.Dependencies, func(i, j int) bool {
			return resp.Dependencies[i].Name < resp.Dependencies[j].Name
		})
	}

	code := http.StatusOK
	if db.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics отдаёт Prometheus-метрики процесса.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
