// profile.go — обработчики /api/v1/profile и /api/v1/menu endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// GetProfile — GET /api/v1/profile.
// Возвращает профиль текущего пользователя.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	user, err := h.profile.Get(r.Context(), claims.Token)
	if err != nil {
		h.writeServiceError(w, "get_profile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile — PUT /api/v1/profile.
// Изменение полного имени и email текущего пользователя.
func (h *APIHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.profile.Update(r.Context(), claims.Token, req)
	if err != nil {
		h.writeServiceError(w, "update_profile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetProfileActivity — GET /api/v1/profile/activity.
// Журнал собственных действий пользователя, постранично.
func (h *APIHandler) GetProfileActivity(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	page, perPage := paginationParams(r)
	activity, err := h.audit.Activity(r.Context(), claims.Token, claims.Username, page, perPage)
	if err != nil {
		h.writeServiceError(w, "profile_activity", err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// ChangePassword — PUT /api/v1/profile/password.
// Смена пароля текущего пользователя.
func (h *APIHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		apierrors.ValidationError(w, "Текущий и новый пароль обязательны")
		return
	}

	if err := h.profile.ChangePassword(r.Context(), claims.Token, req); err != nil {
		h.writeServiceError(w, "change_password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMenu — GET /api/v1/menu.
// Навигационное меню для роли текущего пользователя. Состав меню
// фиксирован на стороне сервера, клиент его только отрисовывает.
func (h *APIHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"role":     claims.Role.Code(),
		"sections": rbac.Menu(claims.Role),
	})
}
