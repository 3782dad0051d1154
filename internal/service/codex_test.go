package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

func testCategories() []model.Category {
	return []model.Category{
		{ID: "c1", Name: "Financial", Scope: model.ScopeGlobal},
		{ID: "c2", Name: "Northern Permits", Scope: "Northern District"},
		{ID: "c3", Name: "Southern Permits", Scope: "Southern District"},
	}
}

func TestCodexCategories_CacheAndScope(t *testing.T) {
	backendCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		backendCalls++
		json.NewEncoder(w).Encode(testCategories())
	})

	svc := NewCodexService(newTestBackend(t, mux), 16, time.Minute, testLogger())

	// Admin видит глобальные и свой регион
	visible, err := svc.Categories(context.Background(), "tok", adminNorth)
	if err != nil {
		t.Fatalf("Categories() ошибка: %v", err)
	}
	if len(visible) != 2 {
		t.Errorf("Admin видит %d категорий, хотели 2", len(visible))
	}
	for _, c := range visible {
		if c.Scope != model.ScopeGlobal && c.Scope != "Northern District" {
			t.Errorf("Видна категория чужого региона: %q", c.Name)
		}
	}

	// Повторный вызов — из кэша
	if _, err := svc.Categories(context.Background(), "tok", adminNorth); err != nil {
		t.Fatalf("Повторный Categories() ошибка: %v", err)
	}
	if backendCalls != 1 {
		t.Errorf("Backend вызван %d раз, хотели 1 (кэш)", backendCalls)
	}

	// Super Admin видит всё, тоже из кэша
	all, err := svc.Categories(context.Background(), "tok", superAdmin)
	if err != nil {
		t.Fatalf("Categories() для Super Admin ошибка: %v", err)
	}
	if len(all) != 3 || backendCalls != 1 {
		t.Errorf("Super Admin видит %d категорий (backend %d вызовов)", len(all), backendCalls)
	}
}

func TestCodexCreateCategory_Permissions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/categories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Category{ID: "c-new", Name: "Legal", Scope: model.ScopeGlobal})
	})

	svc := NewCodexService(newTestBackend(t, mux), 16, time.Minute, testLogger())
	req := rmsclient.CategoryCreateRequest{Name: "Legal", Scope: model.ScopeGlobal}

	if _, err := svc.CreateCategory(context.Background(), "tok", adminNorth, req); !errors.Is(err, ErrForbidden) {
		t.Errorf("CreateCategory() для Admin: %v, хотели ErrForbidden", err)
	}
	if _, err := svc.CreateCategory(context.Background(), "tok", superAdmin, req); err != nil {
		t.Errorf("CreateCategory() для Super Admin ошибка: %v", err)
	}
	if _, err := svc.CreateCategory(context.Background(), "tok", superAdmin,
		rmsclient.CategoryCreateRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("CreateCategory() без имени: %v, хотели ErrValidation", err)
	}
}

func TestCodexCreateType_RetentionValidation(t *testing.T) {
	var gotPeriod string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/types", func(w http.ResponseWriter, r *http.Request) {
		var req rmsclient.TypeCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotPeriod = req.RetentionPeriod
		json.NewEncoder(w).Encode(model.DocumentType{ID: "t-new", CategoryID: req.CategoryID,
			Name: req.Name, RetentionPeriod: req.RetentionPeriod})
	})

	svc := NewCodexService(newTestBackend(t, mux), 16, time.Minute, testLogger())

	tests := []struct {
		name    string
		period  string
		wantErr bool
		want    string
	}{
		{"корректный срок", "5 Years", false, "5 Years"},
		{"единственное число нормализуется", "1 Year", false, "1 Years"},
		{"бессрочный", "permanent", false, "Permanent"},
		{"неизвестная единица", "5 Decades", true, ""},
		{"нулевая длительность", "0 Days", true, ""},
		{"пустой срок", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := rmsclient.TypeCreateRequest{
				CategoryID: "c1", Name: "Annual Report", RetentionPeriod: tt.period,
			}
			_, err := svc.CreateType(context.Background(), "tok", superAdmin, req)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("CreateType(%q): %v, хотели ErrValidation", tt.period, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateType(%q) ошибка: %v", tt.period, err)
			}
			if gotPeriod != tt.want {
				t.Errorf("Отправленный срок = %q, хотели %q", gotPeriod, tt.want)
			}
		})
	}
}

func TestCodexTypes_HiddenCategory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testCategories())
	})
	mux.HandleFunc("GET /api/types", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.DocumentType{{ID: "t1", CategoryID: "c3"}})
	})

	svc := NewCodexService(newTestBackend(t, mux), 16, time.Minute, testLogger())

	// Категория чужого региона недоступна
	if _, err := svc.Types(context.Background(), "tok", adminNorth, "c3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Types() чужой категории: %v, хотели ErrNotFound", err)
	}

	// Глобальная категория доступна
	if _, err := svc.Types(context.Background(), "tok", adminNorth, "c1"); err != nil {
		t.Errorf("Types() глобальной категории ошибка: %v", err)
	}
}
