package model

// Stats — агрегаты панели мониторинга.
type Stats struct {
	// TotalRecords — всего записей в области видимости пользователя
	TotalRecords int `json:"total_records"`
	// ActiveRecords — записей со статусом Active
	ActiveRecords int `json:"active_records"`
	// ArchivedRecords — записей со статусом Archived
	ArchivedRecords int `json:"archived_records"`
	// DisposedRecords — записей со статусом Disposed
	DisposedRecords int `json:"disposed_records"`
	// ExpiredRecords — записей с истёкшим сроком хранения
	ExpiredRecords int `json:"expired_records"`
	// WarningRecords — записей, срок хранения которых истекает
	// в ближайшие 30 дней
	WarningRecords int `json:"warning_records"`
	// TotalUsers — всего пользователей (только для административных ролей)
	TotalUsers int `json:"total_users,omitempty"`
	// TotalCategories — всего видимых категорий
	TotalCategories int `json:"total_categories"`
}
