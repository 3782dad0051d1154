package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// syncBackend — mock Backend с входом служебной учётной записи
// и постраничной выдачей записей.
func syncBackend(t *testing.T, total, perPage int) (http.Handler, *int) {
	t.Helper()
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		json.NewEncoder(w).Encode(rmsclient.LoginResponse{
			Token: "svc-token", ExpiresIn: 3600,
			User: model.User{Username: "console-sync", Role: "SUPER_ADMIN"},
		})
	})
	mux.HandleFunc("GET /api/records", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		start := (page - 1) * perPage
		var records []model.Record
		for i := start; i < total && i < start+perPage; i++ {
			records = append(records, model.Record{
				ID:     fmt.Sprintf("rec-%03d", i),
				Title:  fmt.Sprintf("Документ %d", i),
				Region: "Northern District",
				Status: model.RecordStatusActive,
			})
		}
		json.NewEncoder(w).Encode(rmsclient.RecordListResponse{
			Records: records, Total: total, Page: page, PerPage: perPage,
		})
	})
	return mux, &logins
}

func TestRegistrySyncOnce(t *testing.T) {
	handler, logins := syncBackend(t, 120, 50)
	backend := newTestBackend(t, handler)
	tokens := rmsclient.NewServiceTokenSource(backend, "console-sync", "secret", testLogger())

	mirror := newFakeMirrorRepo()
	syncRepo := &fakeSyncRepo{}

	svc := NewRegistrySyncService(backend, tokens, mirror, syncRepo, nil, 50, time.Hour, testLogger())

	total, err := svc.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() ошибка: %v", err)
	}
	if total != 120 {
		t.Errorf("Синхронизировано %d записей, хотели 120", total)
	}
	if mirror.size() != 120 {
		t.Errorf("В зеркале %d записей, хотели 120", mirror.size())
	}
	if *logins != 1 {
		t.Errorf("Вход выполнен %d раз, хотели 1 (кэш токена)", *logins)
	}

	// Повторный прогон — updated, без нового входа
	total2, err := svc.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("Повторный SyncOnce() ошибка: %v", err)
	}
	if total2 != 120 || *logins != 1 {
		t.Errorf("Повторный прогон: total=%d, logins=%d", total2, *logins)
	}
}

func TestRegistrySyncStartStop(t *testing.T) {
	handler, _ := syncBackend(t, 3, 50)
	backend := newTestBackend(t, handler)
	tokens := rmsclient.NewServiceTokenSource(backend, "console-sync", "secret", testLogger())

	mirror := newFakeMirrorRepo()
	syncRepo := &fakeSyncRepo{}

	svc := NewRegistrySyncService(backend, tokens, mirror, syncRepo, nil, 50, time.Hour, testLogger())
	svc.Start(context.Background())

	// Первый прогон выполняется сразу при старте
	deadline := time.After(5 * time.Second)
	for mirror.size() != 3 {
		select {
		case <-deadline:
			t.Fatalf("Первый прогон не завершился: %d записей", mirror.size())
		case <-time.After(10 * time.Millisecond):
		}
	}

	svc.Stop()

	state, _ := syncRepo.Get(context.Background())
	if state.LastStatus != model.SyncStatusOK || state.RecordsSynced != 3 {
		t.Errorf("sync_state = %+v", state)
	}
}
