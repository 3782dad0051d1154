// auth.go — обработчики /api/v1/auth endpoints.
// Вход, выход и самостоятельная регистрация. Вход обменивает учётные
// данные на JWT Backend и укладывает его в зашифрованный session cookie
// вместе с начальным состоянием навигации реестра.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
	"github.com/bigkaa/goregistry/console-module/internal/service"
	"github.com/bigkaa/goregistry/console-module/internal/ui/auth"
	"github.com/bigkaa/goregistry/console-module/internal/ui/nav"
)

// loginResponse — ответ на удачный вход.
type loginResponse struct {
	// User — профиль вошедшего пользователя
	User any `json:"user"`
	// ExpiresIn — время жизни сессии в секундах
	ExpiresIn int `json:"expires_in"`
}

// Login — POST /api/v1/auth/login.
// Обменивает логин и пароль на сессию консоли.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req rmsclient.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "Логин и пароль обязательны")
		return
	}

	resp, err := h.profile.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// 401 от Backend на login — неверные учётные данные,
		// а не просроченная сессия.
		if errors.Is(err, service.ErrSessionInvalid) {
			apierrors.Unauthorized(w, "Неверный логин или пароль")
			return
		}
		h.writeServiceError(w, "login", err)
		return
	}

	session := &auth.SessionData{
		Token:     resp.Token,
		ExpiresAt: time.Now().Unix() + int64(resp.ExpiresIn),
		Username:  resp.User.Username,
		Role:      resp.User.Role,
		Region:    resp.User.Region,
		Nav:       nav.NewState(),
	}
	if err := h.sessions.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", "username", req.Username, "error", err)
		apierrors.InternalError(w, "Ошибка создания сессии")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:      resp.User,
		ExpiresIn: resp.ExpiresIn,
	})
}

// Logout — POST /api/v1/auth/logout.
// Сбрасывает session cookie. Токен Backend не отзывается —
// он истекает сам по server-side timeout.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Register — POST /api/v1/auth/register.
// Самостоятельная регистрация учётной записи STAFF.
// Доступность регулируется настройкой allow_registration на Backend.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req rmsclient.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.profile.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}
