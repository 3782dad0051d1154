// Пакет rbac — ролевая модель консоли: роли, их возможности
// и построение навигационного меню по роли.
package rbac

import "fmt"

// Role — роль пользователя. Закрытый набор из трёх значений.
type Role int

const (
	// RoleStaff — рядовой сотрудник: работа с записями своего региона.
	RoleStaff Role = iota
	// RoleAdmin — региональный администратор: управление записями
	// и персоналом своего региона.
	RoleAdmin
	// RoleSuperAdmin — глобальный администратор центрального офиса.
	RoleSuperAdmin
)

// Коды ролей Backend API.
const (
	codeStaff      = "STAFF"
	codeAdmin      = "ADMIN"
	codeSuperAdmin = "SUPER_ADMIN"
)

// Отображаемые имена ролей.
const (
	nameStaff      = "Staff"
	nameAdmin      = "Admin"
	nameSuperAdmin = "Super Admin"
)

// Parse разбирает роль из кода Backend или отображаемого имени.
func Parse(s string) (Role, error) {
	switch s {
	case codeStaff, nameStaff:
		return RoleStaff, nil
	case codeAdmin, nameAdmin:
		return RoleAdmin, nil
	case codeSuperAdmin, nameSuperAdmin:
		return RoleSuperAdmin, nil
	default:
		return RoleStaff, fmt.Errorf("неизвестная роль %q", s)
	}
}

// Code возвращает код роли для Backend API.
func (r Role) Code() string {
	switch r {
	case RoleAdmin:
		return codeAdmin
	case RoleSuperAdmin:
		return codeSuperAdmin
	default:
		return codeStaff
	}
}

// String возвращает отображаемое имя роли.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return nameAdmin
	case RoleSuperAdmin:
		return nameSuperAdmin
	default:
		return nameStaff
	}
}

// IsAdmin возвращает true для административных ролей.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanManageUsers — доступ к управлению пользователями.
func (r Role) CanManageUsers() bool {
	return r.IsAdmin()
}

// CanManageRegions — доступ к управлению регионами.
func (r Role) CanManageRegions() bool {
	return r == RoleSuperAdmin
}

// CanManageCodex — право изменять категории и типы документов.
// Просмотр Codex доступен всем ролям.
func (r Role) CanManageCodex() bool {
	return r == RoleSuperAdmin
}

// CanViewAudit — доступ к журналу действий.
func (r Role) CanViewAudit() bool {
	return r == RoleSuperAdmin
}

// CanManageSettings — доступ к системным настройкам и резервным копиям.
func (r Role) CanManageSettings() bool {
	return r == RoleSuperAdmin
}

// MenuItem — пункт навигационного меню.
type MenuItem struct {
	// Path — маршрут SPA
	Path string `json:"path"`
	// Label — отображаемый текст пункта
	Label string `json:"label"`
	// Icon — имя пиктограммы
	Icon string `json:"icon"`
}

// MenuSection — раздел меню с заголовком.
type MenuSection struct {
	// Title — заголовок раздела
	Title string `json:"title"`
	// Items — пункты раздела
	Items []MenuItem `json:"items"`
}

// Menu возвращает навигационное меню для роли. Состав меню
// фиксирован на стороне сервера, клиент его только отрисовывает.
func Menu(r Role) []MenuSection {
	switch r {
	case RoleSuperAdmin:
		return []MenuSection{
			{Title: "Overview", Items: []MenuItem{
				{Path: "/dashboard", Label: "Dashboard", Icon: "dashboard"},
				{Path: "/global-map", Label: "Global Map", Icon: "globe"},
			}},
			{Title: "Governance", Items: []MenuItem{
				{Path: "/regions", Label: "Regions", Icon: "map"},
				{Path: "/registry", Label: "Registry", Icon: "folder"},
				{Path: "/codex", Label: "Codex (Rules)", Icon: "book"},
				{Path: "/users", Label: "Team", Icon: "users"},
			}},
			{Title: "Security", Items: []MenuItem{
				{Path: "/audit", Label: "Audit Logs", Icon: "shield"},
				{Path: "/settings", Label: "Settings", Icon: "gear"},
			}},
		}
	case RoleAdmin:
		return []MenuSection{
			{Title: "Regional", Items: []MenuItem{
				{Path: "/dashboard", Label: "Dashboard", Icon: "dashboard"},
				{Path: "/registry", Label: "Documents", Icon: "folder"},
				{Path: "/codex", Label: "Codex (Rules)", Icon: "book"},
			}},
			{Title: "Team", Items: []MenuItem{
				{Path: "/users", Label: "My Staff", Icon: "users"},
			}},
		}
	default:
		return []MenuSection{
			{Title: "Workspace", Items: []MenuItem{
				{Path: "/dashboard", Label: "Home", Icon: "home"},
				{Path: "/registry", Label: "Search Files", Icon: "search"},
				{Path: "/codex", Label: "Codex (Rules)", Icon: "book"},
			}},
		}
	}
}
