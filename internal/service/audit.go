// audit.go — сервис журнала действий. Доступен только Super Admin.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// AuditService — сервис журнала действий.
type AuditService struct {
	backend *rmsclient.Client
	logger  *slog.Logger
}

// NewAuditService создаёт сервис журнала действий.
func NewAuditService(backend *rmsclient.Client, logger *slog.Logger) *AuditService {
	return &AuditService{
		backend: backend,
		logger:  logger.With(slog.String("component", "audit_service")),
	}
}

// List возвращает страницу журнала действий.
func (s *AuditService) List(ctx context.Context, token string, p scope.Principal, params rmsclient.AuditListParams) (*rmsclient.AuditListResponse, error) {
	if !p.Role.CanViewAudit() {
		return nil, ErrForbidden
	}

	resp, err := s.backend.ListLogs(ctx, token, params)
	if err != nil {
		return nil, mapBackendError("получение журнала действий", err)
	}
	return resp, nil
}

// Activity возвращает страницу собственных действий пользователя.
// Фильтр по имени фиксирован на самого пользователя, поэтому
// ограничение CanViewAudit здесь не применяется.
func (s *AuditService) Activity(ctx context.Context, token, username string, page, perPage int) (*rmsclient.AuditListResponse, error) {
	resp, err := s.backend.ListLogs(ctx, token, rmsclient.AuditListParams{
		Username: username,
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, mapBackendError("получение активности пользователя", err)
	}
	return resp, nil
}

// Clear очищает журнал действий.
func (s *AuditService) Clear(ctx context.Context, token string, p scope.Principal) error {
	if !p.Role.CanViewAudit() {
		return ErrForbidden
	}

	if err := s.backend.ClearLogs(ctx, token); err != nil {
		return mapBackendError("очистка журнала действий", err)
	}

	s.logger.Info("Журнал действий очищен")
	return nil
}
