// regions.go — сервис управления регионами.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// RegionsService — сервис регионов.
type RegionsService struct {
	backend *rmsclient.Client
	logger  *slog.Logger
}

// NewRegionsService создаёт сервис регионов.
func NewRegionsService(backend *rmsclient.Client, logger *slog.Logger) *RegionsService {
	return &RegionsService{
		backend: backend,
		logger:  logger.With(slog.String("component", "regions_service")),
	}
}

// List возвращает регионы, видимые пользователю: Super Admin — все,
// остальные — только назначенный.
func (s *RegionsService) List(ctx context.Context, token string, p scope.Principal) ([]model.Region, error) {
	regions, err := s.backend.ListRegions(ctx, token)
	if err != nil {
		return nil, mapBackendError("получение регионов", err)
	}
	return scope.VisibleRegions(p, regions), nil
}

// Create создаёт регион. Только Super Admin.
func (s *RegionsService) Create(ctx context.Context, token string, p scope.Principal, req rmsclient.RegionCreateRequest) (*model.Region, error) {
	if !p.Role.CanManageRegions() {
		return nil, ErrForbidden
	}
	if req.Name == "" || req.Code == "" {
		return nil, ErrValidation
	}
	if req.Status == "" {
		req.Status = model.RegionStatusActive
	}

	region, err := s.backend.CreateRegion(ctx, token, req)
	if err != nil {
		return nil, mapBackendError("создание региона", err)
	}

	s.logger.Info("Регион создан",
		slog.String("region_id", region.ID),
		slog.String("name", region.Name),
	)
	return region, nil
}

// Update изменяет регион. Только Super Admin.
func (s *RegionsService) Update(ctx context.Context, token string, p scope.Principal, id string, req rmsclient.RegionCreateRequest) (*model.Region, error) {
	if !p.Role.CanManageRegions() {
		return nil, ErrForbidden
	}

	region, err := s.backend.UpdateRegion(ctx, token, id, req)
	if err != nil {
		return nil, mapBackendError("обновление региона", err)
	}

	s.logger.Info("Регион обновлён", slog.String("region_id", id))
	return region, nil
}

// SetStatus меняет операционный статус региона (Active/Inactive).
// Только Super Admin.
func (s *RegionsService) SetStatus(ctx context.Context, token string, p scope.Principal, id, status string) (*model.Region, error) {
	if !p.Role.CanManageRegions() {
		return nil, ErrForbidden
	}
	if status != model.RegionStatusActive && status != model.RegionStatusInactive {
		return nil, ErrValidation
	}

	region, err := s.backend.SetRegionStatus(ctx, token, id, status)
	if err != nil {
		return nil, mapBackendError("смена статуса региона", err)
	}

	s.logger.Info("Статус региона изменён",
		slog.String("region_id", id),
		slog.String("status", status),
	)
	return region, nil
}

// Delete удаляет регион. Только Super Admin. Backend отклоняет
// удаление региона с записями или пользователями.
func (s *RegionsService) Delete(ctx context.Context, token string, p scope.Principal, id string) error {
	if !p.Role.CanManageRegions() {
		return ErrForbidden
	}

	if err := s.backend.DeleteRegion(ctx, token, id); err != nil {
		return mapBackendError("удаление региона", err)
	}

	s.logger.Info("Регион удалён", slog.String("region_id", id))
	return nil
}
