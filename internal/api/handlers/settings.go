// settings.go — обработчики /api/v1/settings, /api/v1/backup
// и /api/v1/restore endpoints. Доступ: только Super Admin.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// Лимит чтения multipart-формы восстановления в память.
const restoreFormMemoryLimit = 32 << 20 // 32 MiB

// Лимит чтения multipart-формы логотипа в память.
const logoFormMemoryLimit = 5 << 20 // 5 MiB

// GetSettings — GET /api/v1/settings.
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	settings, err := h.settings.Get(r.Context(), claims.Token, claims.Principal())
	if err != nil {
		h.writeServiceError(w, "get_settings", err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// GetBranding — GET /api/v1/branding.
// Публичный endpoint: страница входа запрашивает имя системы и
// логотип до аутентификации.
func (h *APIHandler) GetBranding(w http.ResponseWriter, r *http.Request) {
	branding, err := h.settings.Branding(r.Context())
	if err != nil {
		h.writeServiceError(w, "get_branding", err)
		return
	}

	writeJSON(w, http.StatusOK, branding)
}

// UpdateSettings — PUT /api/v1/settings.
func (h *APIHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	updated, err := h.settings.Update(r.Context(), claims.Token, claims.Principal(), settings)
	if err != nil {
		h.writeServiceError(w, "update_settings", err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// UploadLogo — POST /api/v1/settings/logo.
// Загрузка логотипа системы (multipart, поле logo).
func (h *APIHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := r.ParseMultipartForm(logoFormMemoryLimit); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		apierrors.ValidationError(w, "Файл логотипа (logo) обязателен")
		return
	}
	defer file.Close()

	settings, err := h.settings.UploadLogo(r.Context(), claims.Token, claims.Principal(), header.Filename, file)
	if err != nil {
		h.writeServiceError(w, "upload_logo", err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// CreateBackup — GET /api/v1/backup.
// Стримит резервную копию Backend клиенту без буферизации.
func (h *APIHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	body, filename, err := h.settings.Backup(r.Context(), claims.Token, claims.Principal())
	if err != nil {
		h.writeServiceError(w, "create_backup", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("Прерван стриминг резервной копии", "error", err)
	}
}

// RestoreBackup — POST /api/v1/restore.
// Передаёт загруженный файл резервной копии в Backend. После
// восстановления локальный кэш справочника Codex сбрасывается.
func (h *APIHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := r.ParseMultipartForm(restoreFormMemoryLimit); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}

	file, header, err := r.FormFile("backup")
	if err != nil {
		apierrors.ValidationError(w, "Файл резервной копии (backup) обязателен")
		return
	}
	defer file.Close()

	result, err := h.settings.Restore(r.Context(), claims.Token, claims.Principal(), header.Filename, file)
	if err != nil {
		h.writeServiceError(w, "restore_backup", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
