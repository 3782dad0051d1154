// audit.go — обработчики /api/v1/logs endpoints.
// Журнал действий пользователей. Доступ: только Super Admin.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// ListLogs — GET /api/v1/logs.
// Журнал действий с фильтрами по пользователю и коду действия.
func (h *APIHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	page, perPage := paginationParams(r)
	q := r.URL.Query()
	params := rmsclient.AuditListParams{
		Username: q.Get("username"),
		Action:   q.Get("action"),
		Page:     page,
		PerPage:  perPage,
	}

	result, err := h.audit.List(r.Context(), claims.Token, claims.Principal(), params)
	if err != nil {
		h.writeServiceError(w, "list_logs", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ClearLogs — DELETE /api/v1/logs.
// Очистка журнала действий.
func (h *APIHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	if err := h.audit.Clear(r.Context(), claims.Token, claims.Principal()); err != nil {
		h.writeServiceError(w, "clear_logs", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
