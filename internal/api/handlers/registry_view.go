// registry_view.go — обработчики /api/v1/registry/view.
// Иерархическая навигация реестра: регион → категория → таблица
// записей. Состояние живёт в session cookie; SPA отправляет события
// навигации и отрисовывает возвращённую панель.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
	"github.com/bigkaa/goregistry/console-module/internal/api/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
	"github.com/bigkaa/goregistry/console-module/internal/service"
	uimw "github.com/bigkaa/goregistry/console-module/internal/ui/middleware"
	"github.com/bigkaa/goregistry/console-module/internal/ui/nav"
)

// События навигации реестра.
const (
	navEventSelectRegion   = "select-region"
	navEventSelectCategory = "select-category"
	navEventUpRoot         = "up-root"
	navEventUpRegion       = "up-region"
	navEventSearch         = "search"
	navEventStatusFilter   = "status-filter"
)

// navEventRequest — тело POST /api/v1/registry/view.
type navEventRequest struct {
	// Event — событие навигации (select-region, up-root, search, ...)
	Event string `json:"event"`
	// Value — аргумент события: имя региона, категории, строка
	// поиска или значение фильтра статуса
	Value string `json:"value,omitempty"`
}

// registryViewResponse — панель реестра для отрисовки клиентом.
type registryViewResponse struct {
	// View — какую панель рисовать (regions, categories, records)
	View nav.View `json:"view"`
	// Level — уровень навигации
	Level nav.Level `json:"level"`
	// Breadcrumbs — навигационная цепочка
	Breadcrumbs []nav.Breadcrumb `json:"breadcrumbs"`
	// State — текущее состояние навигации
	State nav.State `json:"state"`

	// Данные панели: заполнено ровно одно из трёх полей.
	Regions    []model.Region      `json:"regions,omitempty"`
	Categories []model.Category    `json:"categories,omitempty"`
	Records    *service.RecordPage `json:"records,omitempty"`
}

// GetRegistryView — GET /api/v1/registry/view.
// Возвращает текущую панель реестра без изменения состояния.
func (h *APIHandler) GetRegistryView(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	state := nav.NewState()
	if session := uimw.SessionFromContext(r.Context()); session != nil {
		state = session.Nav
	}

	h.renderRegistryView(w, r, claims, state)
}

// PostRegistryEvent — POST /api/v1/registry/view.
// Применяет событие навигации к состоянию сессии и возвращает
// новую панель.
func (h *APIHandler) PostRegistryEvent(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims")
		return
	}

	var req navEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	state := nav.NewState()
	session := uimw.SessionFromContext(r.Context())
	if session != nil {
		state = session.Nav
	}

	state, err := applyNavEvent(state, req)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	// Сохраняем новое состояние в сессию до записи тела ответа.
	if session != nil {
		session.Nav = state
		if err := h.sessions.SetSessionCookie(w, session); err != nil {
			h.logger.Error("Ошибка сохранения состояния навигации", "error", err)
			apierrors.InternalError(w, "Ошибка сохранения сессии")
			return
		}
	}

	h.renderRegistryView(w, r, claims, state)
}

// applyNavEvent применяет событие навигации к состоянию.
func applyNavEvent(state nav.State, req navEventRequest) (nav.State, error) {
	switch req.Event {
	case navEventSelectRegion:
		if req.Value == "" {
			return state, fmt.Errorf("событие %s требует имя региона", req.Event)
		}
		return state.SelectRegion(req.Value), nil
	case navEventSelectCategory:
		if req.Value == "" {
			return state, fmt.Errorf("событие %s требует имя категории", req.Event)
		}
		return state.SelectCategory(req.Value), nil
	case navEventUpRoot:
		return state.UpToRoot(), nil
	case navEventUpRegion:
		return state.UpToRegion(), nil
	case navEventSearch:
		return state.SetSearch(req.Value), nil
	case navEventStatusFilter:
		if req.Value == "" {
			return state.SetStatusFilter(nav.DefaultStatusFilter), nil
		}
		return state.SetStatusFilter(req.Value), nil
	default:
		return state, fmt.Errorf("неизвестное событие навигации %q", req.Event)
	}
}

// renderRegistryView наполняет панель данными текущего уровня
// и записывает ответ.
func (h *APIHandler) renderRegistryView(w http.ResponseWriter, r *http.Request, claims *middleware.AuthClaims, state nav.State) {
	resp := registryViewResponse{
		View:        state.View(),
		Level:       state.Level(),
		Breadcrumbs: state.Breadcrumbs(),
		State:       state,
	}

	var err error
	switch resp.View {
	case nav.ViewRegions:
		resp.Regions, err = h.regions.List(r.Context(), claims.Token, claims.Principal())
	case nav.ViewCategories:
		resp.Categories, err = h.codex.Categories(r.Context(), claims.Token, claims.Principal())
	case nav.ViewRecords:
		page, perPage := paginationParams(r)
		resp.Records, err = h.registry.List(r.Context(), claims.Token, claims.Principal(), rmsclient.RecordListParams{
			Search:   state.Search,
			Region:   state.Region,
			Category: state.Category,
			Status:   state.StatusFilter,
			Page:     page,
			PerPage:  perPage,
		})
	}
	if err != nil {
		h.writeServiceError(w, "registry_view", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
