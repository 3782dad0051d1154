// dashboard.go — сервис панели мониторинга.
// Агрегаты считаются по локальному зеркалу записей; при выключенном
// зеркале данные запрашиваются напрямую у Backend.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
	"github.com/bigkaa/goregistry/console-module/internal/domain/retention"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/repository"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// alertWindowDays — горизонт предупреждений панели мониторинга.
const alertWindowDays = 30

// DashboardView — сводка панели мониторинга.
type DashboardView struct {
	// Stats — агрегаты в области видимости пользователя
	Stats model.Stats `json:"stats"`
	// Alerts — записи с истёкшим или истекающим сроком хранения
	Alerts []RecordView `json:"alerts"`
	// RegionBreakdown — записей по регионам; только для Super Admin
	RegionBreakdown map[string]int `json:"region_breakdown,omitempty"`
	// LastSyncAt — время последней синхронизации зеркала
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// DashboardService — сервис панели мониторинга.
type DashboardService struct {
	backend    *rmsclient.Client
	mirrorRepo repository.RecordMirrorRepository
	syncRepo   repository.SyncStateRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewDashboardService создаёт сервис панели мониторинга.
// mirrorRepo и syncRepo равны nil при выключенном зеркале.
func NewDashboardService(
	backend *rmsclient.Client,
	mirrorRepo repository.RecordMirrorRepository,
	syncRepo repository.SyncStateRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		backend:    backend,
		mirrorRepo: mirrorRepo,
		syncRepo:   syncRepo,
		logger:     logger.With(slog.String("component", "dashboard_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// scopeRegions возвращает ограничение по регионам для запросов
// к зеркалу: nil для Super Admin, иначе — назначенный регион.
func scopeRegions(p scope.Principal) []string {
	if p.Role == rbac.RoleSuperAdmin {
		return nil
	}
	return []string{p.Region}
}

// Overview собирает сводку панели мониторинга.
func (s *DashboardService) Overview(ctx context.Context, token string, p scope.Principal) (*DashboardView, error) {
	stats, err := s.backend.Stats(ctx, token)
	if err != nil {
		return nil, mapBackendError("получение статистики", err)
	}

	view := &DashboardView{Stats: *stats}

	if s.mirrorRepo == nil {
		// Зеркало выключено: предупреждения из Backend постранично
		alerts, err := s.alertsFromBackend(ctx, token, p)
		if err != nil {
			return nil, err
		}
		view.Alerts = alerts
		return view, nil
	}

	regions := scopeRegions(p)
	now := s.now()

	byStatus, err := s.mirrorRepo.CountByStatus(ctx, regions)
	if err != nil {
		return nil, err
	}
	view.Stats.ActiveRecords = byStatus[model.RecordStatusActive]
	view.Stats.ArchivedRecords = byStatus[model.RecordStatusArchived]
	view.Stats.DisposedRecords = byStatus[model.RecordStatusDisposed]
	view.Stats.TotalRecords = view.Stats.ActiveRecords +
		view.Stats.ArchivedRecords + view.Stats.DisposedRecords

	due, err := s.mirrorRepo.ListDisposalsDue(ctx, regions, now.AddDate(0, 0, alertWindowDays), 100)
	if err != nil {
		return nil, err
	}
	view.Alerts = make([]RecordView, 0, len(due))
	expired, warning := 0, 0
	for _, rec := range due {
		d := retention.ClassifyDate(rec.DisposalDate, now)
		if d.Status == retention.StatusExpired {
			expired++
		} else if d.Status == retention.StatusWarning {
			warning++
		}
		view.Alerts = append(view.Alerts, RecordView{
			Record: *rec,
			Disposal: DisposalView{
				Status:        string(d.Status),
				Label:         d.Label,
				Date:          d.Date,
				DaysRemaining: d.DaysRemaining,
			},
		})
	}
	view.Stats.ExpiredRecords = expired
	view.Stats.WarningRecords = warning

	if p.Role == rbac.RoleSuperAdmin {
		breakdown, err := s.mirrorRepo.CountByRegion(ctx)
		if err != nil {
			return nil, err
		}
		view.RegionBreakdown = breakdown
	}

	if s.syncRepo != nil {
		state, err := s.syncRepo.Get(ctx)
		if err != nil {
			s.logger.Warn("Не удалось прочитать состояние синхронизации",
				slog.String("error", err.Error()))
		} else {
			view.LastSyncAt = state.LastSyncAt
		}
	}

	return view, nil
}

// alertsFromBackend классифицирует активные записи из Backend.
// Используется только при выключенном зеркале; выборка ограничена
// одной страницей.
func (s *DashboardService) alertsFromBackend(ctx context.Context, token string, p scope.Principal) ([]RecordView, error) {
	params := rmsclient.RecordListParams{
		Status:  model.RecordStatusActive,
		Page:    1,
		PerPage: 500,
	}
	if p.Role != rbac.RoleSuperAdmin {
		params.Region = p.Region
	}

	resp, err := s.backend.ListRecords(ctx, token, params)
	if err != nil {
		return nil, mapBackendError("получение записей для предупреждений", err)
	}

	now := s.now()
	var alerts []RecordView
	for _, rec := range scope.VisibleRecords(p, resp.Records) {
		d := retention.ClassifyDate(rec.DisposalDate, now)
		if d.Status == retention.StatusSecure {
			continue
		}
		alerts = append(alerts, RecordView{
			Record: rec,
			Disposal: DisposalView{
				Status:        string(d.Status),
				Label:         d.Label,
				Date:          d.Date,
				DaysRemaining: d.DaysRemaining,
			},
		})
	}
	return alerts, nil
}

// SyncState возвращает состояние синхронизации зеркала.
func (s *DashboardService) SyncState(ctx context.Context) (*model.SyncState, error) {
	if s.syncRepo == nil {
		return nil, ErrNotFound
	}
	return s.syncRepo.Get(ctx)
}
