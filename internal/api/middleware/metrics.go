// metrics.go — Prometheus HTTP метрики Console Module.
// Регистрирует метрики: cm_http_requests_total, cm_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm_http_requests_total",
			Help: "Общее количество HTTP-запросов к Console Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Console Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/records/7f3a... → /api/v1/records/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/auth/login", "/api/v1/auth/logout", "/api/v1/auth/register",
		"/api/v1/profile", "/api/v1/profile/password", "/api/v1/profile/activity",
		"/api/v1/dashboard/stats", "/api/v1/sync", "/api/v1/menu",
		"/api/v1/openapi.json", "/api/v1/branding",
		"/api/v1/users/region-for-role",
		"/api/v1/records", "/api/v1/registry/view",
		"/api/v1/categories", "/api/v1/types",
		"/api/v1/regions", "/api/v1/users",
		"/api/v1/logs", "/api/v1/settings", "/api/v1/settings/logo",
		"/api/v1/backup", "/api/v1/restore":
		return path
	}

	if strings.HasPrefix(path, "/api/v1/records/download/") {
		return "/api/v1/records/download/{id}"
	}

	// Динамические пути с идентификатором
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/records/", "/api/v1/records/{id}"},
		{"/api/v1/categories/", "/api/v1/categories/{id}"},
		{"/api/v1/types/", "/api/v1/types/{id}"},
		{"/api/v1/regions/", "/api/v1/regions/{id}"},
		{"/api/v1/users/", "/api/v1/users/{id}"},
	}

	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			rest := path[len(p.prefix):]
			switch {
			case strings.HasSuffix(rest, "/status"):
				return p.result + "/status"
			case strings.HasSuffix(rest, "/verify"):
				return p.result + "/verify"
			default:
				return p.result
			}
		}
	}

	return path
}
