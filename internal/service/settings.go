// settings.go — сервис системных настроек и резервного копирования.
// Чтение и изменение настроек — только Super Admin; публичная часть
// (брендинг страницы входа) отдаётся без аутентификации.
package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// SettingsService — сервис настроек и обслуживания.
type SettingsService struct {
	backend *rmsclient.Client
	codex   *CodexService
	logger  *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
// codex нужен для сброса кэша справочника после восстановления.
func NewSettingsService(backend *rmsclient.Client, codex *CodexService, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		backend: backend,
		codex:   codex,
		logger:  logger.With(slog.String("component", "settings_service")),
	}
}

// Get возвращает системные настройки.
func (s *SettingsService) Get(ctx context.Context, token string, p scope.Principal) (*model.Settings, error) {
	if !p.Role.CanManageSettings() {
		return nil, ErrForbidden
	}

	settings, err := s.backend.GetSettings(ctx, token)
	if err != nil {
		return nil, mapBackendError("получение настроек", err)
	}
	return settings, nil
}

// Branding возвращает публичную часть настроек: имя системы, логотип
// и флаг регистрации. SPA запрашивает её до входа, чтобы оформить
// страницу входа, поэтому метод не принимает principal и не
// раскрывает остальные поля настроек.
func (s *SettingsService) Branding(ctx context.Context) (*model.Branding, error) {
	settings, err := s.backend.GetSettings(ctx, "")
	if err != nil {
		return nil, mapBackendError("получение настроек", err)
	}

	return &model.Branding{
		SystemName:        settings.SystemName,
		LogoURL:           settings.LogoURL,
		AllowRegistration: settings.AllowRegistration,
	}, nil
}

// Update изменяет системные настройки.
func (s *SettingsService) Update(ctx context.Context, token string, p scope.Principal, settings model.Settings) (*model.Settings, error) {
	if !p.Role.CanManageSettings() {
		return nil, ErrForbidden
	}
	if settings.SessionTimeoutMinutes <= 0 || settings.MaxUploadSizeMB <= 0 {
		return nil, ErrValidation
	}

	updated, err := s.backend.UpdateSettings(ctx, token, settings)
	if err != nil {
		return nil, mapBackendError("обновление настроек", err)
	}

	s.logger.Info("Настройки обновлены",
		slog.Bool("maintenance_mode", updated.MaintenanceMode),
	)
	return updated, nil
}

// Backup открывает поток резервной копии Backend.
// Возвращает поток, предлагаемое имя файла и ошибку.
func (s *SettingsService) Backup(ctx context.Context, token string, p scope.Principal) (io.ReadCloser, string, error) {
	if !p.Role.CanManageSettings() {
		return nil, "", ErrForbidden
	}

	stream, filename, err := s.backend.Backup(ctx, token)
	if err != nil {
		return nil, "", mapBackendError("создание резервной копии", err)
	}

	s.logger.Info("Резервная копия запрошена", slog.String("filename", filename))
	return stream, filename, nil
}

// UploadLogo загружает логотип системы для брендинга консоли.
func (s *SettingsService) UploadLogo(ctx context.Context, token string, p scope.Principal, filename string, logo io.Reader) (*model.Settings, error) {
	if !p.Role.CanManageSettings() {
		return nil, ErrForbidden
	}

	settings, err := s.backend.UploadLogo(ctx, token, filename, logo)
	if err != nil {
		return nil, mapBackendError("загрузка логотипа", err)
	}

	s.logger.Info("Логотип обновлён", slog.String("filename", filename))
	return settings, nil
}

// Restore восстанавливает данные из резервной копии и сбрасывает
// кэш справочника Codex.
func (s *SettingsService) Restore(ctx context.Context, token string, p scope.Principal, filename string, backup io.Reader) (*rmsclient.RestoreResult, error) {
	if !p.Role.CanManageSettings() {
		return nil, ErrForbidden
	}

	result, err := s.backend.Restore(ctx, token, filename, backup)
	if err != nil {
		return nil, mapBackendError("восстановление из резервной копии", err)
	}

	if s.codex != nil {
		s.codex.InvalidateCache()
	}

	s.logger.Info("Восстановление выполнено",
		slog.String("filename", filename),
		slog.Int("record_count", result.RecordCount),
	)
	return result, nil
}
