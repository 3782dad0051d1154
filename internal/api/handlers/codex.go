// codex.go — обработчики /api/v1/categories и /api/v1/types endpoints.
// Справочник Codex: категории с областью видимости и типы документов
// с правилами хранения.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// ListCategories — GET /api/v1/categories.
// Категории в области видимости пользователя (Global плюс свой регион).
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	categories, err := h.codex.Categories(r.Context(), claims.Token, claims.Principal())
	if err != nil {
		h.writeServiceError(w, "list_categories", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// CreateCategory — POST /api/v1/categories.
// Доступ: только Super Admin.
func (h *APIHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.CategoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Name == "" {
		apierrors.ValidationError(w, "Имя категории обязательно")
		return
	}

	category, err := h.codex.CreateCategory(r.Context(), claims.Token, claims.Principal(), req)
	if err != nil {
		h.writeServiceError(w, "create_category", err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// DeleteCategory — DELETE /api/v1/categories/{id}.
// Доступ: только Super Admin. Backend отклоняет удаление категории
// с записями (409).
func (h *APIHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := h.codex.DeleteCategory(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "delete_category", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTypes — GET /api/v1/types?category_id=...
// Типы документов категории. Категория вне области видимости
// неотличима от отсутствующей (404).
func (h *APIHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	categoryID := r.URL.Query().Get("category_id")
	if categoryID == "" {
		apierrors.ValidationError(w, "Параметр category_id обязателен")
		return
	}

	types, err := h.codex.Types(r.Context(), claims.Token, claims.Principal(), categoryID)
	if err != nil {
		h.writeServiceError(w, "list_types", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"types": types})
}

// CreateType — POST /api/v1/types.
// Срок хранения валидируется и нормализуется до передачи в Backend.
// Доступ: только Super Admin.
func (h *APIHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.TypeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.CategoryID == "" || req.Name == "" {
		apierrors.ValidationError(w, "Категория и имя типа обязательны")
		return
	}

	docType, err := h.codex.CreateType(r.Context(), claims.Token, claims.Principal(), req)
	if err != nil {
		h.writeServiceError(w, "create_type", err)
		return
	}

	writeJSON(w, http.StatusCreated, docType)
}

// DeleteType — DELETE /api/v1/types/{id}?category_id=...
// Доступ: только Super Admin.
func (h *APIHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	categoryID := r.URL.Query().Get("category_id")
	if err := h.codex.DeleteType(r.Context(), claims.Token, claims.Principal(), categoryID, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "delete_type", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
