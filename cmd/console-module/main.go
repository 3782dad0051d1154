// Точка входа Console Module — консоль управления реестром документов.
// Загружает конфигурацию, при включённом зеркале подключается к PostgreSQL
// и применяет миграции, создаёт клиент RMS Backend, сервисный слой
// и API handlers, запускает фоновые задачи (синхронизация зеркала,
// topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goregistry/console-module/internal/api/contract"
	"github.com/bigkaa/goregistry/console-module/internal/api/handlers"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/config"
	"github.com/bigkaa/goregistry/console-module/internal/database"
	"github.com/bigkaa/goregistry/console-module/internal/repository"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
	"github.com/bigkaa/goregistry/console-module/internal/server"
	"github.com/bigkaa/goregistry/console-module/internal/service"
	"github.com/bigkaa/goregistry/console-module/internal/ui/auth"
	uimiddleware "github.com/bigkaa/goregistry/console-module/internal/ui/middleware"
)

// Допустимое отклонение времени при валидации JWT.
const jwtLeeway = 30 * time.Second

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Console Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("backend_url", cfg.BackendURL),
		slog.Bool("mirror_enabled", cfg.MirrorEnabled),
	)

	if os.Getenv("CM_DEPHEALTH_GROUP") == "" {
		logger.Warn("CM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx := context.Background()

	// 3. PostgreSQL — локальное зеркало реестра (инициализируется ниже,
	// только при включённом зеркале)
	var (
		mirrorRepo   repository.RecordMirrorRepository
		syncRepo     repository.SyncStateRepository
		pgChecker    handlers.ReadinessChecker
		syncSvc      *service.RegistrySyncService
		dephealthSvc *service.DephealthService
		dephealthErr error
	)

	// 4. Клиент RMS Backend
	backend, err := rmsclient.New(cfg.BackendURL, cfg.BackendCACertPath, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента Backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.MirrorEnabled {
		// Применение миграций БД
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// Подключение к PostgreSQL (pgxpool)
		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		mirrorRepo = repository.NewRecordMirrorRepository(pool)
		syncRepo = repository.NewSyncStateRepository(pool)
		pgChecker = database.NewReadinessChecker(pool)

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
		sqlDB := stdlib.OpenDBFromPool(pool)
		defer sqlDB.Close()

		// Сервисная учётная запись для фоновой синхронизации зеркала
		tokens := rmsclient.NewServiceTokenSource(backend, cfg.ServiceUsername, cfg.ServicePassword, logger)
		syncSvc = service.NewRegistrySyncService(
			backend, tokens,
			mirrorRepo, syncRepo, repository.NewTxRunner(pool),
			cfg.SyncPageSize, cfg.SyncInterval,
			logger,
		)

		dephealthSvc, dephealthErr = service.NewDephealthService(
			"console-module",
			cfg.DephealthGroup,
			sqlDB,
			cfg.DatabaseDSN(),
			cfg.BackendJWKSURL,
			cfg.DephealthCheckInterval,
			logger,
		)
	} else {
		logger.Info("Зеркало реестра отключено, панель мониторинга работает напрямую через Backend")

		dephealthSvc, dephealthErr = service.NewDephealthService(
			"console-module",
			cfg.DephealthGroup,
			nil,
			"",
			cfg.BackendJWKSURL,
			cfg.DephealthCheckInterval,
			logger,
		)
	}

	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	}

	// 5. Сервисный слой
	profileSvc := service.NewProfileService(backend, logger)
	registrySvc := service.NewRegistryService(backend, mirrorRepo, logger)
	codexSvc := service.NewCodexService(backend, cfg.CodexCacheSize, cfg.CodexCacheTTL, logger)
	regionsSvc := service.NewRegionsService(backend, logger)
	usersSvc := service.NewUsersService(backend, logger)
	dashboardSvc := service.NewDashboardService(backend, mirrorRepo, syncRepo, logger)
	auditSvc := service.NewAuditService(backend, logger)
	settingsSvc := service.NewSettingsService(backend, codexSvc, logger)

	// 6. UI-сессии (AES-256-GCM cookie)
	secureCookie := strings.HasPrefix(cfg.BackendURL, "https")
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, secureCookie)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("CM_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}
	sessionAuth := uimiddleware.NewSessionAuth(sessionMgr, logger)

	// 7. JWT middleware (bearer-путь для API-клиентов)
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.BackendJWKSURL,
		cfg.BackendCACertPath,
		cfg.JWTIssuer,
		jwtLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.BackendJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 8. OpenAPI контракт
	ctr, err := contract.Load(logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. API handlers
	healthHandler := handlers.NewHealthHandler(backend, pgChecker)
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		profileSvc,
		registrySvc,
		codexSvc,
		regionsSvc,
		usersSvc,
		dashboardSvc,
		auditSvc,
		settingsSvc,
		sessionMgr,
		logger,
	)

	// 10. Запуск фоновых задач
	if syncSvc != nil {
		syncSvc.Start(ctx)
		defer syncSvc.Stop()
	}

	if dephealthSvc != nil {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 11. HTTP-сервер
	srv, err := server.New(cfg, logger, apiHandler, ctr, jwtAuth, sessionAuth)
	if err != nil {
		logger.Error("Ошибка создания HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
