// handler.go — основной обработчик JSON API консоли.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/service"
	"github.com/bigkaa/goregistry/console-module/internal/ui/auth"
)

// APIHandler — основной обработчик API Console Module.
// Делегирует запросы в сервисный слой, отображая ошибки сервисов
// в стандартный формат ошибок консоли.
type APIHandler struct {
	health    *HealthHandler
	profile   *service.ProfileService
	registry  *service.RegistryService
	codex     *service.CodexService
	regions   *service.RegionsService
	users     *service.UsersService
	dashboard *service.DashboardService
	audit     *service.AuditService
	settings  *service.SettingsService
	sessions  *auth.SessionManager
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	profile *service.ProfileService,
	registry *service.RegistryService,
	codex *service.CodexService,
	regions *service.RegionsService,
	users *service.UsersService,
	dashboard *service.DashboardService,
	audit *service.AuditService,
	settings *service.SettingsService,
	sessions *auth.SessionManager,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		profile:   profile,
		registry:  registry,
		codex:     codex,
		regions:   regions,
		users:     users,
		dashboard: dashboard,
		audit:     audit,
		settings:  settings,
		sessions:  sessions,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationParams нормализует параметры пагинации из query string.
// Возвращает корректные page (с единицы) и per_page.
func paginationParams(r *http.Request) (int, int) {
	page := 1
	perPage := 50

	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			perPage = n
			if perPage > 500 {
				perPage = 500
			}
		}
	}

	return page, perPage
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// При отклонённом Backend-ом токене сбрасывает session cookie:
// SPA в ответ возвращает пользователя на страницу входа.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrSessionInvalid):
		h.sessions.ClearSessionCookie(w)
		apierrors.SessionInvalid(w, "Сессия отклонена Backend-ом, требуется повторный вход")
	case errors.Is(err, service.ErrBackendUnavailable):
		apierrors.BackendUnavailable(w, "RMS Backend временно недоступен")
	default:
		h.logger.Error("Ошибка обработки запроса", "op", op, "error", err)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
