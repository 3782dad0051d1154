// Пакет model — доменные модели Console Module.
// Все сущности принадлежат RMS Backend; клиент держит только
// транзитные копии на время рендеринга плюс локальное зеркало реестра.
package model

import "time"

// Статусы региона.
const (
	RegionStatusActive   = "Active"
	RegionStatusInactive = "Inactive"
)

// CentralRegion — фиксированный регион Super Admin (центральный офис).
const CentralRegion = "Central Office"

// Region — региональное подразделение, ограничивающее видимость данных.
type Region struct {
	// ID — идентификатор региона в Backend
	ID string `json:"id"`
	// Code — короткий код региона (R1, R2, ...)
	Code string `json:"code"`
	// Name — отображаемое имя региона
	Name string `json:"name"`
	// Status — операционный статус (Active, Inactive)
	Status string `json:"status"`
	// Address — адрес регионального офиса
	Address string `json:"address"`
	// CreatedAt — дата регистрации региона
	CreatedAt time.Time `json:"created_at"`
}

// IsActive возвращает true для операционного региона.
func (r *Region) IsActive() bool {
	return r.Status == RegionStatusActive
}
