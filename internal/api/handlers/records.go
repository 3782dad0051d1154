// records.go — обработчики /api/v1/records endpoints.
// CRUD записей реестра, смена статуса жизненного цикла, проверка
// пароля ограниченного доступа и загрузка файла.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// Лимит чтения multipart-формы в память; сам файл стримится на диск.
const recordFormMemoryLimit = 10 << 20 // 10 MiB

// ListRecords — GET /api/v1/records.
// Список записей с фильтрами поиска, региона, категории и статуса.
// Область видимости применяется сервисом поверх фильтров.
func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	page, perPage := paginationParams(r)
	q := r.URL.Query()
	params := rmsclient.RecordListParams{
		Search:   q.Get("search"),
		Region:   q.Get("region"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Page:     page,
		PerPage:  perPage,
	}

	result, err := h.registry.List(r.Context(), claims.Token, claims.Principal(), params)
	if err != nil {
		h.writeServiceError(w, "list_records", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetRecord — GET /api/v1/records/{id}.
func (h *APIHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	record, err := h.registry.Get(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "get_record", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// CreateRecord — POST /api/v1/records.
// Регистрация записи. Multipart-форма: поля записи плюс опциональный
// файл документа в поле file.
func (h *APIHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := r.ParseMultipartForm(recordFormMemoryLimit); err != nil {
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}

	input, err := recordInputFromForm(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var (
		file     io.Reader
		filename string
	)
	if f, header, ferr := r.FormFile("file"); ferr == nil {
		defer f.Close()
		file = f
		filename = header.Filename
	}

	record, err := h.registry.Create(r.Context(), claims.Token, claims.Principal(), input, filename, file)
	if err != nil {
		h.writeServiceError(w, "create_record", err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// UpdateRecord — PUT /api/v1/records/{id}.
// Изменение метаданных записи; файл не заменяется.
func (h *APIHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var input model.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	record, err := h.registry.Update(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeServiceError(w, "update_record", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// SetRecordStatus — PATCH /api/v1/records/{id}/status.
// Перевод записи по жизненному циклу: Active, Archived, Disposed.
func (h *APIHandler) SetRecordStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.RecordStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	record, err := h.registry.SetStatus(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, "set_record_status", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// DeleteRecord — DELETE /api/v1/records/{id}.
func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := h.registry.Delete(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "delete_record", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VerifyRecord — POST /api/v1/records/{id}/verify.
// Проверка пароля доступа к файлу записи с ограниченным доступом.
func (h *APIHandler) VerifyRecord(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req rmsclient.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.Password == "" {
		apierrors.ValidationError(w, "Пароль доступа обязателен")
		return
	}

	result, err := h.registry.Verify(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		h.writeServiceError(w, "verify_record", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DownloadRecordFile — GET /api/v1/records/download/{id}.
// Стримит файл записи из Backend без буферизации. Аутентификация
// через session cookie: SPA открывает загрузку обычной ссылкой.
func (h *APIHandler) DownloadRecordFile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	body, contentType, err := h.registry.Download(r.Context(), claims.Token, claims.Principal(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "download_record_file", err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать.
		h.logger.Warn("Прерван стриминг файла записи",
			"record_id", chi.URLParam(r, "id"),
			"error", err,
		)
	}
}

// recordInputFromForm собирает RecordInput из multipart-формы.
func recordInputFromForm(r *http.Request) (model.RecordInput, error) {
	input := model.RecordInput{
		Title:      r.FormValue("title"),
		CategoryID: r.FormValue("category_id"),
		TypeID:     r.FormValue("type_id"),
		Region:     r.FormValue("region"),
	}

	if raw := r.FormValue("document_date"); raw != "" {
		parsed, err := parseDocumentDate(raw)
		if err != nil {
			return input, err
		}
		input.DocumentDate = parsed
	}

	return input, nil
}

// parseDocumentDate разбирает дату документа: RFC3339 либо YYYY-MM-DD.
func parseDocumentDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата документа %q: ожидается RFC3339 или YYYY-MM-DD", raw)
	}
	return t, nil
}
