// Пакет nav — состояние иерархической навигации реестра:
// регион → категория → таблица записей. Состояние живёт на сервере
// в сессии, SPA отправляет события и отрисовывает ответ.
package nav

// Level — текущий уровень навигации.
type Level string

const (
	// LevelRoot — регион не выбран, показывается список регионов.
	LevelRoot Level = "root"
	// LevelRegion — выбран регион, показывается список категорий.
	LevelRegion Level = "region"
	// LevelCategory — выбраны регион и категория, показывается
	// таблица записей.
	LevelCategory Level = "category"
)

// View — панель, которую должен отрисовать клиент.
type View string

const (
	ViewRegions    View = "regions"
	ViewCategories View = "categories"
	ViewRecords    View = "records"
)

// DefaultStatusFilter — фильтр таблицы записей по умолчанию.
const DefaultStatusFilter = "Active"

// State — состояние навигации пользователя.
type State struct {
	// Region — выбранный регион, пусто на корневом уровне
	Region string `json:"region,omitempty"`
	// Category — выбранная категория, пусто вне таблицы записей
	Category string `json:"category,omitempty"`
	// Search — строка поиска; непустая переводит сразу к таблице
	Search string `json:"search,omitempty"`
	// StatusFilter — фильтр статуса записей (Active, Archived)
	StatusFilter string `json:"status_filter"`
}

// NewState возвращает начальное состояние навигации.
func NewState() State {
	return State{StatusFilter: DefaultStatusFilter}
}

// Level возвращает текущий уровень навигации.
func (s State) Level() Level {
	switch {
	case s.Region == "":
		return LevelRoot
	case s.Category == "":
		return LevelRegion
	default:
		return LevelCategory
	}
}

// View возвращает панель для отрисовки. Непустой поиск показывает
// таблицу записей независимо от уровня навигации.
func (s State) View() View {
	if s.Search != "" {
		return ViewRecords
	}
	switch s.Level() {
	case LevelRoot:
		return ViewRegions
	case LevelRegion:
		return ViewCategories
	default:
		return ViewRecords
	}
}

// SelectRegion выбирает регион и сбрасывает выбор категории.
func (s State) SelectRegion(region string) State {
	s.Region = region
	s.Category = ""
	return s
}

// SelectCategory выбирает категорию. Фильтр статуса возвращается
// к значению по умолчанию, остаточный поиск очищается: фильтры
// одной категории не протекают в другую.
func (s State) SelectCategory(category string) State {
	s.Category = category
	s.Search = ""
	s.StatusFilter = DefaultStatusFilter
	return s
}

// UpToRoot возвращает к списку регионов: выбор, поиск и фильтр
// статуса сбрасываются полностью.
func (s State) UpToRoot() State {
	s.Region = ""
	s.Category = ""
	s.Search = ""
	s.StatusFilter = DefaultStatusFilter
	return s
}

// UpToRegion возвращает к списку категорий текущего региона:
// сбрасывается только категория.
func (s State) UpToRegion() State {
	s.Category = ""
	return s
}

// SetSearch задаёт строку поиска.
func (s State) SetSearch(query string) State {
	s.Search = query
	return s
}

// SetStatusFilter задаёт фильтр статуса записей.
func (s State) SetStatusFilter(filter string) State {
	s.StatusFilter = filter
	return s
}

// Breadcrumb — элемент навигационной цепочки.
type Breadcrumb struct {
	// Label — отображаемый текст
	Label string `json:"label"`
	// Level — уровень, на который возвращает щелчок
	Level Level `json:"level"`
}

// Breadcrumbs строит навигационную цепочку для текущего состояния.
func (s State) Breadcrumbs() []Breadcrumb {
	crumbs := []Breadcrumb{{Label: "Registry", Level: LevelRoot}}
	if s.Region != "" {
		crumbs = append(crumbs, Breadcrumb{Label: s.Region, Level: LevelRegion})
	}
	if s.Category != "" {
		crumbs = append(crumbs, Breadcrumb{Label: s.Category, Level: LevelCategory})
	}
	return crumbs
}
