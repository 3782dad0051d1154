// Пакет scope — фильтрация данных по роли и региону пользователя.
// Реестр, Codex и панель мониторинга вызывают эти функции вместо
// собственных проверок видимости.
package scope

import (
	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
)

// Principal — субъект доступа: роль и назначенный регион.
type Principal struct {
	// Role — роль пользователя
	Role rbac.Role
	// Region — назначенный регион; для Super Admin всегда
	// центральный офис
	Region string
}

// CategoryVisible проверяет видимость категории: глобальная область,
// собственный регион либо роль Super Admin.
func CategoryVisible(p Principal, c model.Category) bool {
	if p.Role == rbac.RoleSuperAdmin {
		return true
	}
	return c.Scope == model.ScopeGlobal || c.Scope == p.Region
}

// VisibleCategories возвращает видимое подмножество категорий
// с сохранением исходного порядка.
func VisibleCategories(p Principal, categories []model.Category) []model.Category {
	if p.Role == rbac.RoleSuperAdmin {
		return categories
	}
	visible := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if CategoryVisible(p, c) {
			visible = append(visible, c)
		}
	}
	return visible
}

// VisibleRegions возвращает регионы, видимые пользователю:
// Super Admin видит все, остальные — только свой.
func VisibleRegions(p Principal, regions []model.Region) []model.Region {
	if p.Role == rbac.RoleSuperAdmin {
		return regions
	}
	visible := make([]model.Region, 0, 1)
	for _, r := range regions {
		if r.Name == p.Region {
			visible = append(visible, r)
		}
	}
	return visible
}

// VisibleRecords возвращает записи, видимые пользователю:
// Super Admin видит все, остальные — записи своего региона.
func VisibleRecords(p Principal, records []model.Record) []model.Record {
	if p.Role == rbac.RoleSuperAdmin {
		return records
	}
	visible := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.Region == p.Region {
			visible = append(visible, r)
		}
	}
	return visible
}

// CanMutate проверяет право изменять записи региона region:
// Super Admin — везде, остальные роли — только в своём назначенном
// регионе. Проверка выполняется и на Backend; здесь она отсекает
// запрос раньше.
func CanMutate(p Principal, region string) bool {
	if p.Role == rbac.RoleSuperAdmin {
		return true
	}
	return region == p.Region
}

// RegionForRole вычисляет регион для формы пользователя при смене
// роли: Super Admin жёстко привязан к центральному офису, остальные
// роли при уходе с Super Admin получают первый доступный регион.
// Возвращает регион и признак блокировки поля.
func RegionForRole(role rbac.Role, current string, available []model.Region) (string, bool) {
	if role == rbac.RoleSuperAdmin {
		return model.CentralRegion, true
	}
	if current == "" || current == model.CentralRegion {
		for _, r := range available {
			if r.Name != model.CentralRegion {
				return r.Name, false
			}
		}
		return "", false
	}
	return current, false
}
