// Пакет middleware — HTTP middleware сессионной аутентификации SPA.
// auth.go — проверка cookie-сессии консоли; применяется к JSON API
// консоли и к маршрутам загрузки файлов, где SPA не может передать
// заголовок Authorization.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	apimw "github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
	"github.com/bigkaa/goregistry/console-module/internal/ui/auth"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

const (
	// ContextKeySession — данные сессии в контексте запроса.
	ContextKeySession contextKey = "console_session"
)

// SessionAuth — middleware проверки сессии консоли.
// Извлекает сессию из зашифрованного cookie; повреждённый cookie
// или истёкший токен дают 401 SESSION_INVALID со сбросом cookie —
// SPA в ответ возвращает пользователя на страницу входа.
type SessionAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewSessionAuth создаёт новый SessionAuth middleware.
func NewSessionAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "session_auth")),
	}
}

// Middleware возвращает HTTP middleware проверки сессии.
// Применяется ко всем маршрутам /api/v1/*, кроме /api/v1/auth/*.
func (sa *SessionAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Извлекаем сессию из cookie
			session, err := sa.sessionManager.GetSessionFromRequest(r)
			if err != nil {
				sa.logger.Debug("Ошибка чтения сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем
				sa.sessionManager.ClearSessionCookie(w)
				apierrors.SessionInvalid(w, "Повреждённая сессия")
				return
			}

			// 2. Сессия отсутствует
			if session == nil {
				apierrors.Unauthorized(w, "Требуется вход")
				return
			}

			// 3. Токен Backend истёк — сессия завершена, повторный вход
			if session.IsExpired() {
				sa.logger.Info("Сессия истекла",
					slog.String("username", session.Username),
				)
				sa.sessionManager.ClearSessionCookie(w)
				apierrors.SessionInvalid(w, "Сессия истекла")
				return
			}

			role, err := rbac.Parse(session.Role)
			if err != nil {
				sa.sessionManager.ClearSessionCookie(w)
				apierrors.SessionInvalid(w, "Некорректная роль в сессии")
				return
			}

			// 4. Помещаем сессию и claims в контекст: downstream handlers
			// работают одинаково для cookie- и bearer-аутентификации.
			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			ctx = apimw.WithClaims(ctx, &apimw.AuthClaims{
				Username: session.Username,
				Role:     role,
				Region:   session.Region,
				Token:    session.Token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil если сессия не найдена (не прошёл через SessionAuth middleware).
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeySession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
