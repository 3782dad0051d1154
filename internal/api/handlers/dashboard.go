// dashboard.go — обработчик /api/v1/dashboard/stats.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
)

// GetStats — GET /api/v1/dashboard/stats.
// Панель мониторинга: агрегаты по статусам, алерты сроков хранения
// и (для Super Admin) распределение записей по регионам.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	view, err := h.dashboard.Overview(r.Context(), claims.Token, claims.Principal())
	if err != nil {
		h.writeServiceError(w, "get_stats", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetSyncState — GET /api/v1/sync.
// Состояние последней синхронизации локального зеркала реестра.
func (h *APIHandler) GetSyncState(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	state, err := h.dashboard.SyncState(r.Context())
	if err != nil {
		h.writeServiceError(w, "get_sync_state", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
