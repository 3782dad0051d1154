package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/repository"
)

// fakeMirrorRepo — in-memory реализация RecordMirrorRepository для тестов.
type fakeMirrorRepo struct {
	mu      sync.Mutex
	records map[string]*model.Record
}

func newFakeMirrorRepo() *fakeMirrorRepo {
	return &fakeMirrorRepo{records: make(map[string]*model.Record)}
}

func (f *fakeMirrorRepo) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeMirrorRepo) GetByID(_ context.Context, id string) (*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeMirrorRepo) List(_ context.Context, filters repository.RecordFilters, limit, offset int) ([]*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Record
	for _, rec := range f.records {
		if f.match(rec, filters) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeMirrorRepo) match(rec *model.Record, filters repository.RecordFilters) bool {
	if len(filters.Regions) > 0 {
		found := false
		for _, r := range filters.Regions {
			if rec.Region == r {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filters.Status != nil && rec.Status != *filters.Status {
		return false
	}
	return true
}

func (f *fakeMirrorRepo) Count(ctx context.Context, filters repository.RecordFilters) (int, error) {
	list, _ := f.List(ctx, filters, 0, 0)
	return len(list), nil
}

func (f *fakeMirrorRepo) BatchUpsert(_ context.Context, records []*model.Record, _ time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	added, updated := 0, 0
	for _, rec := range records {
		if _, ok := f.records[rec.ID]; ok {
			updated++
		} else {
			added++
		}
		f.records[rec.ID] = rec
	}
	return added, updated, nil
}

func (f *fakeMirrorRepo) DeleteMissing(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeMirrorRepo) CountByStatus(_ context.Context, regions []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, rec := range f.records {
		if len(regions) > 0 && !containsRegion(regions, rec.Region) {
			continue
		}
		out[rec.Status]++
	}
	return out, nil
}

func (f *fakeMirrorRepo) CountByRegion(_ context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, rec := range f.records {
		out[rec.Region]++
	}
	return out, nil
}

func (f *fakeMirrorRepo) ListDisposalsDue(_ context.Context, regions []string, before time.Time, limit int) ([]*model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Record
	for _, rec := range f.records {
		if rec.DisposalDate == nil || rec.Status == model.RecordStatusDisposed {
			continue
		}
		if !rec.DisposalDate.Before(before) {
			continue
		}
		if len(regions) > 0 && !containsRegion(regions, rec.Region) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func containsRegion(regions []string, region string) bool {
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}

// fakeSyncRepo — in-memory реализация SyncStateRepository для тестов.
type fakeSyncRepo struct {
	state model.SyncState
}

func (f *fakeSyncRepo) Get(_ context.Context) (*model.SyncState, error) {
	s := f.state
	return &s, nil
}

func (f *fakeSyncRepo) MarkSuccess(_ context.Context, at time.Time, n int) error {
	f.state.LastSyncAt = &at
	f.state.LastStatus = model.SyncStatusOK
	f.state.LastError = ""
	f.state.RecordsSynced = n
	return nil
}

func (f *fakeSyncRepo) MarkError(_ context.Context, err error) error {
	f.state.LastStatus = model.SyncStatusError
	f.state.LastError = err.Error()
	return nil
}

func statsBackend(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Stats{TotalUsers: 7, TotalCategories: 3})
	})
	return mux
}

func TestDashboardOverview_MirrorAggregates(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 5)
	past := now.AddDate(0, 0, -3)

	mirror := newFakeMirrorRepo()
	syncAt := now.Add(-10 * time.Minute)
	syncRepo := &fakeSyncRepo{state: model.SyncState{ID: 1, LastSyncAt: &syncAt}}

	records := []*model.Record{
		{ID: "r1", Region: "Northern District", Status: model.RecordStatusActive, DisposalDate: &soon},
		{ID: "r2", Region: "Northern District", Status: model.RecordStatusActive, DisposalDate: &past},
		{ID: "r3", Region: "Northern District", Status: model.RecordStatusArchived},
		{ID: "r4", Region: "Southern District", Status: model.RecordStatusActive},
		{ID: "r5", Region: "Southern District", Status: model.RecordStatusDisposed, DisposalDate: &past},
	}
	if _, _, err := mirror.BatchUpsert(context.Background(), records, now); err != nil {
		t.Fatalf("Подготовка зеркала: %v", err)
	}

	svc := NewDashboardService(newTestBackend(t, statsBackend(t)), mirror, syncRepo, testLogger())
	svc.now = func() time.Time { return now }

	// Admin северного региона
	view, err := svc.Overview(context.Background(), "tok", adminNorth)
	if err != nil {
		t.Fatalf("Overview() ошибка: %v", err)
	}
	if view.Stats.TotalRecords != 3 || view.Stats.ActiveRecords != 2 || view.Stats.ArchivedRecords != 1 {
		t.Errorf("Stats = %+v", view.Stats)
	}
	if view.Stats.ExpiredRecords != 1 || view.Stats.WarningRecords != 1 {
		t.Errorf("Expired=%d, Warning=%d; хотели 1 и 1",
			view.Stats.ExpiredRecords, view.Stats.WarningRecords)
	}
	if len(view.Alerts) != 2 {
		t.Errorf("Предупреждений %d, хотели 2", len(view.Alerts))
	}
	if view.RegionBreakdown != nil {
		t.Error("RegionBreakdown доступен только Super Admin")
	}
	if view.LastSyncAt == nil || !view.LastSyncAt.Equal(syncAt) {
		t.Errorf("LastSyncAt = %v, хотели %v", view.LastSyncAt, syncAt)
	}
	// Статистика Backend сохраняется
	if view.Stats.TotalUsers != 7 || view.Stats.TotalCategories != 3 {
		t.Errorf("TotalUsers=%d, TotalCategories=%d", view.Stats.TotalUsers, view.Stats.TotalCategories)
	}

	// Super Admin видит разбивку по регионам и все записи
	viewSA, err := svc.Overview(context.Background(), "tok", superAdmin)
	if err != nil {
		t.Fatalf("Overview() для Super Admin ошибка: %v", err)
	}
	if viewSA.Stats.TotalRecords != 5 {
		t.Errorf("TotalRecords = %d, хотели 5", viewSA.Stats.TotalRecords)
	}
	if viewSA.RegionBreakdown["Northern District"] != 3 || viewSA.RegionBreakdown["Southern District"] != 2 {
		t.Errorf("RegionBreakdown = %v", viewSA.RegionBreakdown)
	}
}

func TestDashboardOverview_NoMirror(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Stats{TotalRecords: 2, ActiveRecords: 2})
	})
	mux.HandleFunc("GET /api/records", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			Records []model.Record `json:"records"`
			Total   int            `json:"total"`
		}{
			Records: []model.Record{
				{ID: "r1", Region: "Northern District", Status: model.RecordStatusActive, DisposalDate: &past},
				{ID: "r2", Region: "Northern District", Status: model.RecordStatusActive},
			},
			Total: 2,
		})
	})

	svc := NewDashboardService(newTestBackend(t, mux), nil, nil, testLogger())
	svc.now = func() time.Time { return now }

	view, err := svc.Overview(context.Background(), "tok", adminNorth)
	if err != nil {
		t.Fatalf("Overview() ошибка: %v", err)
	}
	if view.Stats.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, хотели 2 (из Backend)", view.Stats.TotalRecords)
	}
	if len(view.Alerts) != 1 || view.Alerts[0].Disposal.Status != "Expired" {
		t.Errorf("Alerts = %+v", view.Alerts)
	}
}
