// profile.go — сервис аутентификации и личного профиля.
package service

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// ProfileService — сервис входа, регистрации и профиля.
type ProfileService struct {
	backend *rmsclient.Client
	logger  *slog.Logger
}

// NewProfileService создаёт сервис профиля.
func NewProfileService(backend *rmsclient.Client, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		backend: backend,
		logger:  logger.With(slog.String("component", "profile_service")),
	}
}

// Login выполняет вход через Backend и возвращает токен с профилем.
func (s *ProfileService) Login(ctx context.Context, username, password string) (*rmsclient.LoginResponse, error) {
	if username == "" || password == "" {
		return nil, ErrValidation
	}

	resp, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return nil, mapBackendError("вход", err)
	}

	s.logger.Info("Пользователь вошёл",
		slog.String("username", resp.User.Username),
		slog.String("role", resp.User.Role),
		slog.String("region", resp.User.Region),
	)
	return resp, nil
}

// Register создаёт учётную запись через открытую регистрацию.
// Backend отклоняет запрос, если регистрация выключена в настройках.
func (s *ProfileService) Register(ctx context.Context, reg rmsclient.RegisterRequest) (*model.User, error) {
	if reg.Username == "" || reg.Password == "" || reg.Region == "" {
		return nil, ErrValidation
	}

	user, err := s.backend.Register(ctx, reg)
	if err != nil {
		return nil, mapBackendError("регистрация", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("username", user.Username),
		slog.String("region", user.Region),
	)
	return user, nil
}

// Get возвращает профиль текущего пользователя.
func (s *ProfileService) Get(ctx context.Context, token string) (*model.User, error) {
	user, err := s.backend.Profile(ctx, token)
	if err != nil {
		return nil, mapBackendError("получение профиля", err)
	}
	return user, nil
}

// Update изменяет имя и адрес почты текущего пользователя.
func (s *ProfileService) Update(ctx context.Context, token string, upd rmsclient.ProfileUpdateRequest) (*model.User, error) {
	user, err := s.backend.UpdateProfile(ctx, token, upd)
	if err != nil {
		return nil, mapBackendError("обновление профиля", err)
	}

	s.logger.Info("Профиль обновлён", slog.String("username", user.Username))
	return user, nil
}

// ChangePassword меняет пароль текущего пользователя.
func (s *ProfileService) ChangePassword(ctx context.Context, token string, req rmsclient.PasswordChangeRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return ErrValidation
	}

	if err := s.backend.ChangePassword(ctx, token, req); err != nil {
		return mapBackendError("смена пароля", err)
	}

	s.logger.Info("Пароль изменён")
	return nil
}
