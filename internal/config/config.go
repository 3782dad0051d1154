// Пакет config — загрузка и валидация конфигурации Console Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Console Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8080-8089)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- RMS Backend ---

	// Базовый URL RMS Backend API (например, https://rms-core.example.lan)
	BackendURL string
	// URL JWKS endpoint Backend (авто-вычисляется из BackendURL, если не задан)
	BackendJWKSURL string
	// Issuer JWT, выдаваемых Backend (авто-вычисляется из BackendURL)
	JWTIssuer string
	// Путь к CA-сертификату для TLS-соединений с Backend (опционально)
	BackendCACertPath string

	// --- UI-сессии ---

	// Секрет шифрования session cookie (AES-256-GCM)
	SessionSecret string

	// --- PostgreSQL (локальное зеркало реестра) ---

	// Включено ли локальное зеркало реестра
	MirrorEnabled bool
	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Кэш справочника Codex ---

	// Максимальное число ключей LRU-кэша справочника
	CodexCacheSize int
	// Время жизни записей кэша справочника
	CodexCacheTTL time.Duration

	// --- Синхронизация зеркала ---

	// Интервал синхронизации зеркала реестра с Backend
	SyncInterval time.Duration
	// Размер страницы при постраничной синхронизации записей
	SyncPageSize int
	// Сервисная учётная запись для фоновой синхронизации
	ServiceUsername string
	// Пароль сервисной учётной записи
	ServicePassword string

	// --- topologymetrics ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("CM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if cfg.Port < 8080 || cfg.Port > 8089 {
		return nil, fmt.Errorf("CM_PORT: значение %d вне допустимого диапазона 8080-8089", cfg.Port)
	}

	// CM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	// CM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- RMS Backend ---

	// CM_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("CM_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	// CM_BACKEND_JWKS_URL — авто-вычисляется из BackendURL, если не задан
	cfg.BackendJWKSURL = getEnvDefault("CM_BACKEND_JWKS_URL",
		fmt.Sprintf("%s/api/.well-known/jwks.json", cfg.BackendURL))

	// CM_JWT_ISSUER — issuer токенов Backend (по умолчанию BackendURL)
	cfg.JWTIssuer = getEnvDefault("CM_JWT_ISSUER", cfg.BackendURL)

	// CM_BACKEND_CA_CERT_PATH — путь к CA-сертификату Backend (опционально)
	cfg.BackendCACertPath = getEnvDefault("CM_BACKEND_CA_CERT_PATH", "")

	// --- UI-сессии ---

	// CM_SESSION_SECRET — секрет шифрования session cookie (опционально,
	// при отсутствии генерируется случайный ключ на время жизни процесса)
	cfg.SessionSecret = getEnvDefault("CM_SESSION_SECRET", "")

	// --- PostgreSQL ---

	// CM_MIRROR_ENABLED — локальное зеркало реестра (по умолчанию true)
	cfg.MirrorEnabled, err = getEnvBool("CM_MIRROR_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("CM_MIRROR_ENABLED: %w", err)
	}

	if cfg.MirrorEnabled {
		// CM_DB_HOST — обязательный при включённом зеркале
		cfg.DBHost, err = getEnvRequired("CM_DB_HOST")
		if err != nil {
			return nil, err
		}

		// CM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
		cfg.DBPort, err = getEnvInt("CM_DB_PORT", 5432)
		if err != nil {
			return nil, fmt.Errorf("CM_DB_PORT: %w", err)
		}

		// CM_DB_NAME — обязательный
		cfg.DBName, err = getEnvRequired("CM_DB_NAME")
		if err != nil {
			return nil, err
		}

		// CM_DB_USER — обязательный
		cfg.DBUser, err = getEnvRequired("CM_DB_USER")
		if err != nil {
			return nil, err
		}

		// CM_DB_PASSWORD — обязательный
		cfg.DBPassword, err = getEnvRequired("CM_DB_PASSWORD")
		if err != nil {
			return nil, err
		}

		// CM_DB_SSL_MODE — режим SSL (по умолчанию disable)
		cfg.DBSSLMode = getEnvDefault("CM_DB_SSL_MODE", "disable")
		validSSLModes := map[string]bool{
			"disable": true, "require": true, "verify-ca": true, "verify-full": true,
		}
		if !validSSLModes[cfg.DBSSLMode] {
			return nil, fmt.Errorf("CM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
		}

		// CM_SERVICE_USERNAME / CM_SERVICE_PASSWORD — сервисная учётная
		// запись Backend для фоновой синхронизации зеркала
		cfg.ServiceUsername, err = getEnvRequired("CM_SERVICE_USERNAME")
		if err != nil {
			return nil, err
		}
		cfg.ServicePassword, err = getEnvRequired("CM_SERVICE_PASSWORD")
		if err != nil {
			return nil, err
		}
	}

	// --- Кэш справочника Codex ---

	// CM_CODEX_CACHE_SIZE — размер LRU-кэша справочника (по умолчанию 128)
	cfg.CodexCacheSize, err = getEnvInt("CM_CODEX_CACHE_SIZE", 128)
	if err != nil {
		return nil, fmt.Errorf("CM_CODEX_CACHE_SIZE: %w", err)
	}
	if cfg.CodexCacheSize < 1 {
		return nil, fmt.Errorf("CM_CODEX_CACHE_SIZE: значение %d должно быть положительным", cfg.CodexCacheSize)
	}

	// CM_CODEX_CACHE_TTL — время жизни кэша справочника (по умолчанию 5m)
	cfg.CodexCacheTTL, err = getEnvDuration("CM_CODEX_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_CODEX_CACHE_TTL: %w", err)
	}

	// --- Синхронизация зеркала ---

	// CM_SYNC_INTERVAL — интервал синхронизации зеркала (по умолчанию 15m)
	cfg.SyncInterval, err = getEnvDuration("CM_SYNC_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_SYNC_INTERVAL: %w", err)
	}

	// CM_SYNC_PAGE_SIZE — размер страницы синхронизации (по умолчанию 500)
	cfg.SyncPageSize, err = getEnvInt("CM_SYNC_PAGE_SIZE", 500)
	if err != nil {
		return nil, fmt.Errorf("CM_SYNC_PAGE_SIZE: %w", err)
	}
	if cfg.SyncPageSize < 1 || cfg.SyncPageSize > 5000 {
		return nil, fmt.Errorf("CM_SYNC_PAGE_SIZE: значение %d вне допустимого диапазона 1-5000", cfg.SyncPageSize)
	}

	// --- topologymetrics ---

	// CM_DEPHEALTH_GROUP — группа в метриках (по умолчанию "goregistry")
	cfg.DephealthGroup = getEnvDefault("CM_DEPHEALTH_GROUP", "goregistry")

	// CM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
