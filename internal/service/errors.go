// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrForbidden — операция запрещена правами пользователя.
	ErrForbidden = errors.New("недостаточно прав для выполнения операции")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrSessionInvalid — токен Backend отклонён, требуется повторный вход.
	ErrSessionInvalid = errors.New("сессия недействительна")
	// ErrBackendUnavailable — RMS Backend недоступен.
	ErrBackendUnavailable = errors.New("RMS Backend недоступен")
)

// mapBackendError переводит ошибки клиента Backend в ошибки сервисного слоя.
// Ошибка без API-классификации означает, что Backend не ответил или
// ответил невалидно — такие отказы считаются недоступностью Backend.
func mapBackendError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rmsclient.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, rmsclient.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	case errors.Is(err, rmsclient.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, rmsclient.ErrValidation):
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	case errors.Is(err, rmsclient.ErrSessionInvalid):
		return ErrSessionInvalid
	default:
		return fmt.Errorf("%s: %w: %s", op, ErrBackendUnavailable, err.Error())
	}
}
