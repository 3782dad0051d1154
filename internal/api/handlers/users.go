// users.go — обработчики /api/v1/users endpoints.
// Управление учётными записями: Super Admin — по всем регионам,
// региональный Admin — только STAFF своего региона.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// ListUsers — GET /api/v1/users.
// Для регионального Admin список ограничен его регионом.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	page, perPage := paginationParams(r)
	q := r.URL.Query()
	params := rmsclient.UserListParams{
		Search:  q.Get("search"),
		Region:  q.Get("region"),
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.users.List(r.Context(), claims.Token, claims.Principal(), params)
	if err != nil {
		h.writeServiceError(w, "list_users", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateUser — POST /api/v1/users.
// Роль и регион нормализуются сервисом: Super Admin всегда
// закрепляется за центральным офисом.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var input model.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), claims.Token, claims.Principal(), input)
	if err != nil {
		h.writeServiceError(w, "create_user", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser — PUT /api/v1/users/{id}.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var input model.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeServiceError(w, "update_user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// SetUserStatus — PATCH /api/v1/users/{id}/status.
// Блокировка и разблокировка учётной записи (Active, Suspended).
func (h *APIHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.UserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.users.SetStatus(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, "set_user_status", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser — DELETE /api/v1/users/{id}.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := h.users.Delete(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "delete_user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// regionForRoleResponse — ответ GET /api/v1/users/region-for-role.
type regionForRoleResponse struct {
	// Region — регион, подставленный в форму
	Region string `json:"region"`
	// Locked — поле региона заблокировано для редактирования
	Locked bool `json:"locked"`
}

// GetRegionForRole — GET /api/v1/users/region-for-role?role=...&current=...
// Подстановка региона в форме пользователя при смене роли: выбор
// SUPER_ADMIN закрепляет центральный офис и блокирует поле.
func (h *APIHandler) GetRegionForRole(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	q := r.URL.Query()
	role := q.Get("role")
	if role == "" {
		apierrors.ValidationError(w, "Параметр role обязателен")
		return
	}

	region, locked, err := h.users.RegionForRole(r.Context(), claims.Token, role, q.Get("current"))
	if err != nil {
		h.writeServiceError(w, "region_for_role", err)
		return
	}

	writeJSON(w, http.StatusOK, regionForRoleResponse{Region: region, Locked: locked})
}
