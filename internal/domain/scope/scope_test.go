package scope

import (
	"testing"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
)

var testCategories = []model.Category{
	{ID: "c1", Name: "Financial", Scope: model.ScopeGlobal},
	{ID: "c2", Name: "Personnel", Scope: "R1"},
	{ID: "c3", Name: "Legal", Scope: "R2"},
}

var testRegions = []model.Region{
	{ID: "r1", Name: "R1", Status: model.RegionStatusActive},
	{ID: "r2", Name: "R2", Status: model.RegionStatusActive},
}

func names(categories []model.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}

func TestVisibleCategories(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		want      []string
	}{
		{
			name:      "Staff видит глобальные и свой регион",
			principal: Principal{Role: rbac.RoleStaff, Region: "R1"},
			want:      []string{"Financial", "Personnel"},
		},
		{
			name:      "Admin видит глобальные и свой регион",
			principal: Principal{Role: rbac.RoleAdmin, Region: "R2"},
			want:      []string{"Financial", "Legal"},
		},
		{
			name:      "Super Admin видит всё",
			principal: Principal{Role: rbac.RoleSuperAdmin, Region: model.CentralRegion},
			want:      []string{"Financial", "Personnel", "Legal"},
		},
		{
			name:      "чужой регион не виден",
			principal: Principal{Role: rbac.RoleStaff, Region: "R3"},
			want:      []string{"Financial"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(VisibleCategories(tt.principal, testCategories))
			if len(got) != len(tt.want) {
				t.Fatalf("видимых категорий %d, ожидалось %d: %v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("категория %d: %q, ожидалось %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestVisibleRegions(t *testing.T) {
	t.Run("Staff видит только свой регион", func(t *testing.T) {
		p := Principal{Role: rbac.RoleStaff, Region: "R1"}
		got := VisibleRegions(p, testRegions)
		if len(got) != 1 || got[0].Name != "R1" {
			t.Errorf("VisibleRegions = %v, ожидался только R1", got)
		}
	})
	t.Run("Super Admin видит все регионы", func(t *testing.T) {
		p := Principal{Role: rbac.RoleSuperAdmin, Region: model.CentralRegion}
		if got := VisibleRegions(p, testRegions); len(got) != len(testRegions) {
			t.Errorf("видимых регионов %d, ожидалось %d", len(got), len(testRegions))
		}
	})
}

// Сценарий: один активный регион, одна глобальная категория —
// Staff из R1 видит ровно один регион и ровно одну категорию.
func TestSingleRegionScenario(t *testing.T) {
	regions := []model.Region{{ID: "r1", Name: "R1", Status: model.RegionStatusActive}}
	categories := []model.Category{{ID: "c1", Name: "Financial", Scope: model.ScopeGlobal}}
	p := Principal{Role: rbac.RoleStaff, Region: "R1"}

	if got := VisibleRegions(p, regions); len(got) != 1 || got[0].Name != "R1" {
		t.Errorf("VisibleRegions = %v, ожидался только R1", got)
	}
	if got := VisibleCategories(p, categories); len(got) != 1 || got[0].Name != "Financial" {
		t.Errorf("VisibleCategories = %v, ожидалась только Financial", got)
	}
}

func TestVisibleRecords(t *testing.T) {
	records := []model.Record{
		{ID: "1", Region: "R1"},
		{ID: "2", Region: "R2"},
		{ID: "3", Region: "R1"},
	}

	t.Run("Admin видит записи своего региона", func(t *testing.T) {
		p := Principal{Role: rbac.RoleAdmin, Region: "R1"}
		got := VisibleRecords(p, records)
		if len(got) != 2 {
			t.Fatalf("видимых записей %d, ожидалось 2", len(got))
		}
		for _, r := range got {
			if r.Region != "R1" {
				t.Errorf("запись %s из чужого региона %s", r.ID, r.Region)
			}
		}
	})
	t.Run("Super Admin видит все записи", func(t *testing.T) {
		p := Principal{Role: rbac.RoleSuperAdmin, Region: model.CentralRegion}
		if got := VisibleRecords(p, records); len(got) != 3 {
			t.Errorf("видимых записей %d, ожидалось 3", len(got))
		}
	})
}

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		region    string
		want      bool
	}{
		{
			name:      "Staff изменяет записи своего региона",
			principal: Principal{Role: rbac.RoleStaff, Region: "R1"},
			region:    "R1",
			want:      true,
		},
		{
			name:      "Staff не изменяет чужой регион",
			principal: Principal{Role: rbac.RoleStaff, Region: "R1"},
			region:    "R2",
		},
		{
			name:      "Admin изменяет свой регион",
			principal: Principal{Role: rbac.RoleAdmin, Region: "R1"},
			region:    "R1",
			want:      true,
		},
		{
			name:      "Admin не изменяет чужой регион",
			principal: Principal{Role: rbac.RoleAdmin, Region: "R1"},
			region:    "R2",
		},
		{
			name:      "Super Admin изменяет любой регион",
			principal: Principal{Role: rbac.RoleSuperAdmin, Region: model.CentralRegion},
			region:    "R2",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.principal, tt.region); got != tt.want {
				t.Errorf("CanMutate = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestRegionForRole(t *testing.T) {
	available := testRegions

	t.Run("Super Admin привязан к центральному офису", func(t *testing.T) {
		region, locked := RegionForRole(rbac.RoleSuperAdmin, "R1", available)
		if region != model.CentralRegion {
			t.Errorf("регион %q, ожидался %q", region, model.CentralRegion)
		}
		if !locked {
			t.Error("поле региона должно быть заблокировано")
		}
	})

	t.Run("уход с Super Admin даёт первый регион", func(t *testing.T) {
		region, locked := RegionForRole(rbac.RoleAdmin, model.CentralRegion, available)
		if region != "R1" {
			t.Errorf("регион %q, ожидался первый доступный R1", region)
		}
		if locked {
			t.Error("поле региона должно быть доступно")
		}
	})

	t.Run("обычная роль сохраняет регион", func(t *testing.T) {
		region, locked := RegionForRole(rbac.RoleStaff, "R2", available)
		if region != "R2" || locked {
			t.Errorf("RegionForRole = (%q, %v), ожидалось (R2, false)", region, locked)
		}
	})

	t.Run("пустой регион при отсутствии доступных", func(t *testing.T) {
		region, _ := RegionForRole(rbac.RoleAdmin, "", nil)
		if region != "" {
			t.Errorf("регион %q, ожидался пустой", region)
		}
	})
}
