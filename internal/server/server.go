// Пакет server — HTTP-сервер Console Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goregistry/console-module/internal/api/contract"
	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/handlers"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/config"
	uimw "github.com/bigkaa/goregistry/console-module/internal/ui/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/ui/static"
)

// Server — HTTP-сервер Console Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// ctr — OpenAPI контракт для валидации запросов (может быть nil в тестах).
// jwtAuth и sessionAuth — два пути аутентификации: bearer-токен для
// API-клиентов и session cookie для SPA.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	handler *handlers.APIHandler,
	ctr *contract.Contract,
	jwtAuth *middleware.JWTAuth,
	sessionAuth *uimw.SessionAuth,
) (*Server, error) {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую, без аутентификации.
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// Сам контракт отдаётся вне валидируемой группы: документ
	// не описывает собственный маршрут.
	if ctr != nil {
		router.Get("/api/v1/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			data, err := ctr.Spec().MarshalJSON()
			if err != nil {
				apierrors.InternalError(w, "Ошибка сериализации контракта")
				return
			}
			_, _ = w.Write(data)
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		if ctr != nil {
			r.Use(ctr.ValidationMiddleware())
		}

		// Публичные endpoints: аутентификация и брендинг страницы входа
		r.Post("/auth/login", handler.Login)
		r.Post("/auth/logout", handler.Logout)
		r.Post("/auth/register", handler.Register)
		r.Get("/branding", handler.GetBranding)

		// Все остальные endpoints требуют аутентификацию
		r.Group(func(r chi.Router) {
			r.Use(sessionOrBearer(jwtAuth, sessionAuth))

			r.Get("/profile", handler.GetProfile)
			r.Put("/profile", handler.UpdateProfile)
			r.Put("/profile/password", handler.ChangePassword)
			r.Get("/profile/activity", handler.GetProfileActivity)
			r.Get("/menu", handler.GetMenu)

			r.Get("/dashboard/stats", handler.GetStats)
			r.Get("/sync", handler.GetSyncState)

			r.Get("/registry/view", handler.GetRegistryView)
			r.Post("/registry/view", handler.PostRegistryEvent)

			r.Route("/records", func(r chi.Router) {
				r.Get("/", handler.ListRecords)
				r.Post("/", handler.CreateRecord)
				r.Get("/download/{id}", handler.DownloadRecordFile)
				r.Get("/{id}", handler.GetRecord)
				r.Put("/{id}", handler.UpdateRecord)
				r.Delete("/{id}", handler.DeleteRecord)
				r.Patch("/{id}/status", handler.SetRecordStatus)
				r.Post("/{id}/verify", handler.VerifyRecord)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", handler.ListCategories)
				r.Post("/", handler.CreateCategory)
				r.Delete("/{id}", handler.DeleteCategory)
			})

			r.Route("/types", func(r chi.Router) {
				r.Get("/", handler.ListTypes)
				r.Post("/", handler.CreateType)
				r.Delete("/{id}", handler.DeleteType)
			})

			r.Route("/regions", func(r chi.Router) {
				r.Get("/", handler.ListRegions)
				r.Post("/", handler.CreateRegion)
				r.Put("/{id}", handler.UpdateRegion)
				r.Patch("/{id}/status", handler.SetRegionStatus)
				r.Delete("/{id}", handler.DeleteRegion)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handler.ListUsers)
				r.Post("/", handler.CreateUser)
				r.Get("/region-for-role", handler.GetRegionForRole)
				r.Put("/{id}", handler.UpdateUser)
				r.Delete("/{id}", handler.DeleteUser)
				r.Patch("/{id}/status", handler.SetUserStatus)
			})

			r.Get("/logs", handler.ListLogs)
			r.Delete("/logs", handler.ClearLogs)

			r.Get("/settings", handler.GetSettings)
			r.Put("/settings", handler.UpdateSettings)
			r.Post("/settings/logo", handler.UploadLogo)
			r.Get("/backup", handler.CreateBackup)
			r.Post("/restore", handler.RestoreBackup)
		})
	})

	// SPA: все прочие пути отдаёт встроенный фронтенд.
	spa, err := static.Handler()
	if err != nil {
		return nil, fmt.Errorf("инициализация SPA: %w", err)
	}
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apierrors.NotFound(w, "Неизвестный маршрут API")
			return
		}
		spa.ServeHTTP(w, r)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}, nil
}

// sessionOrBearer выбирает путь аутентификации по запросу: заголовок
// Authorization — через JWT middleware, иначе — через session cookie.
func sessionOrBearer(jwtAuth *middleware.JWTAuth, sessionAuth *uimw.SessionAuth) func(http.Handler) http.Handler {
	jwtMW := jwtAuth.Middleware()
	sessionMW := sessionAuth.Middleware()

	return func(next http.Handler) http.Handler {
		withJWT := jwtMW(next)
		withSession := sessionMW(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				withJWT.ServeHTTP(w, r)
				return
			}
			withSession.ServeHTTP(w, r)
		})
	}
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
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
