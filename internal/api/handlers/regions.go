// regions.go — обработчики /api/v1/regions endpoints.
// Управление региональными подразделениями. Изменения доступны
// только Super Admin.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// ListRegions — GET /api/v1/regions.
// Регионы в области видимости пользователя.
func (h *APIHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	regions, err := h.regions.List(r.Context(), claims.Token, claims.Principal())
	if err != nil {
		h.writeServiceError(w, "list_regions", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

// CreateRegion — POST /api/v1/regions.
func (h *APIHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.RegionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Code == "" || req.Name == "" {
		apierrors.ValidationError(w, "Код и имя региона обязательны")
		return
	}

	region, err := h.regions.Create(r.Context(), claims.Token, claims.Principal(), req)
	if err != nil {
		h.writeServiceError(w, "create_region", err)
		return
	}

	writeJSON(w, http.StatusCreated, region)
}

// UpdateRegion — PUT /api/v1/regions/{id}.
func (h *APIHandler) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.RegionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	region, err := h.regions.Update(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, "update_region", err)
		return
	}

	writeJSON(w, http.StatusOK, region)
}

// SetRegionStatus — PATCH /api/v1/regions/{id}/status.
// Перевод региона между Active и Inactive без его удаления.
func (h *APIHandler) SetRegionStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.RegionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Status == "" {
		apierrors.ValidationError(w, "Статус региона обязателен")
		return
	}

	region, err := h.regions.SetStatus(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, "set_region_status", err)
		return
	}

	writeJSON(w, http.StatusOK, region)
}

// DeleteRegion — DELETE /api/v1/regions/{id}.
// Backend отклоняет удаление региона с записями или пользователями (409).
func (h *APIHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := h.regions.Delete(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "delete_region", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
