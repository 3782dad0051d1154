// users.go — сервис управления пользователями.
// Super Admin управляет всеми пользователями, Admin — только своим
// регионом. Регион Super Admin жёстко привязан к центральному офису.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// UsersService — сервис пользователей.
type UsersService struct {
	backend *rmsclient.Client
	logger  *slog.Logger
}

// NewUsersService создаёт сервис пользователей.
func NewUsersService(backend *rmsclient.Client, logger *slog.Logger) *UsersService {
	return &UsersService{
		backend: backend,
		logger:  logger.With(slog.String("component", "users_service")),
	}
}

// canManage проверяет право p управлять пользователем региона region.
func canManage(p scope.Principal, region string) bool {
	if p.Role == rbac.RoleSuperAdmin {
		return true
	}
	return p.Role == rbac.RoleAdmin && region == p.Region
}

// ensureTargetRegion проверяет, что пользователь id принадлежит
// региону, которым p вправе управлять. Super Admin пропускается
// без обращения к Backend.
func (s *UsersService) ensureTargetRegion(ctx context.Context, token string, p scope.Principal, id string) error {
	if p.Role == rbac.RoleSuperAdmin {
		return nil
	}

	target, err := s.backend.GetUser(ctx, token, id)
	if err != nil {
		return mapBackendError("получение пользователя", err)
	}
	if !canManage(p, target.Region) {
		return ErrForbidden
	}
	return nil
}

// normalizeInput применяет правило региона для роли: Super Admin
// всегда в центральном офисе, при уходе с роли Super Admin регион
// переключается на первый доступный.
func (s *UsersService) normalizeInput(ctx context.Context, token string, input *model.UserInput) error {
	role, err := rbac.Parse(input.Role)
	if err != nil {
		return ErrValidation
	}

	regions, err := s.backend.ListRegions(ctx, token)
	if err != nil {
		return mapBackendError("получение регионов", err)
	}

	region, _ := scope.RegionForRole(role, input.Region, regions)
	input.Region = region
	input.Role = role.Code()
	return nil
}

// List возвращает страницу пользователей. Admin видит только свой
// регион, Staff не имеет доступа.
func (s *UsersService) List(ctx context.Context, token string, p scope.Principal, params rmsclient.UserListParams) (*rmsclient.UserListResponse, error) {
	if !p.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	if p.Role != rbac.RoleSuperAdmin {
		params.Region = p.Region
	}

	resp, err := s.backend.ListUsers(ctx, token, params)
	if err != nil {
		return nil, mapBackendError("получение пользователей", err)
	}
	return resp, nil
}

// Create создаёт пользователя.
func (s *UsersService) Create(ctx context.Context, token string, p scope.Principal, input model.UserInput) (*model.User, error) {
	if !p.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	if input.Username == "" || input.Password == "" {
		return nil, ErrValidation
	}
	if err := s.normalizeInput(ctx, token, &input); err != nil {
		return nil, err
	}
	if !canManage(p, input.Region) {
		return nil, ErrForbidden
	}
	// Admin не может создавать административные роли
	if p.Role != rbac.RoleSuperAdmin && input.Role != rbac.RoleStaff.Code() {
		return nil, ErrForbidden
	}

	user, err := s.backend.CreateUser(ctx, token, input)
	if err != nil {
		return nil, mapBackendError("создание пользователя", err)
	}

	s.logger.Info("Пользователь создан",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
		slog.String("region", user.Region),
	)
	return user, nil
}

// Update изменяет пользователя.
func (s *UsersService) Update(ctx context.Context, token string, p scope.Principal, id string, input model.UserInput) (*model.User, error) {
	if !p.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	if err := s.ensureTargetRegion(ctx, token, p, id); err != nil {
		return nil, err
	}
	if err := s.normalizeInput(ctx, token, &input); err != nil {
		return nil, err
	}
	// Регион после изменения тоже обязан остаться в зоне управления:
	// Admin не может передать пользователя другому региону.
	if !canManage(p, input.Region) {
		return nil, ErrForbidden
	}

	user, err := s.backend.UpdateUser(ctx, token, id, input)
	if err != nil {
		return nil, mapBackendError("обновление пользователя", err)
	}

	s.logger.Info("Пользователь обновлён", slog.String("user_id", id))
	return user, nil
}

// SetStatus активирует или приостанавливает учётную запись.
func (s *UsersService) SetStatus(ctx context.Context, token string, p scope.Principal, id, status string) (*model.User, error) {
	if !p.Role.CanManageUsers() {
		return nil, ErrForbidden
	}
	switch status {
	case model.UserStatusActive, model.UserStatusSuspended:
	default:
		return nil, ErrValidation
	}
	if err := s.ensureTargetRegion(ctx, token, p, id); err != nil {
		return nil, err
	}

	user, err := s.backend.SetUserStatus(ctx, token, id, status)
	if err != nil {
		return nil, mapBackendError("смена статуса пользователя", err)
	}

	s.logger.Info("Статус пользователя изменён",
		slog.String("user_id", id),
		slog.String("status", status),
	)
	return user, nil
}

// Delete удаляет учётную запись.
func (s *UsersService) Delete(ctx context.Context, token string, p scope.Principal, id string) error {
	if !p.Role.CanManageUsers() {
		return ErrForbidden
	}
	if err := s.ensureTargetRegion(ctx, token, p, id); err != nil {
		return err
	}

	if err := s.backend.DeleteUser(ctx, token, id); err != nil {
		return mapBackendError("удаление пользователя", err)
	}

	s.logger.Info("Пользователь удалён", slog.String("user_id", id))
	return nil
}

// RegionForRole возвращает регион и признак блокировки поля региона
// для формы пользователя при выборе роли role.
func (s *UsersService) RegionForRole(ctx context.Context, token string, role, current string) (string, bool, error) {
	parsed, err := rbac.Parse(role)
	if err != nil {
		return "", false, ErrValidation
	}

	regions, err := s.backend.ListRegions(ctx, token)
	if err != nil {
		return "", false, mapBackendError("получение регионов", err)
	}

	region, locked := scope.RegionForRole(parsed, current, regions)
	return region, locked, nil
}
