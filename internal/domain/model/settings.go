package model

// Settings — системные настройки Backend.
type Settings struct {
	// SystemName — отображаемое имя системы
	SystemName string `json:"system_name"`
	// MaintenanceMode — режим обслуживания: вход только для Super Admin
	MaintenanceMode bool `json:"maintenance_mode"`
	// SessionTimeoutMinutes — время жизни сессии в минутах
	SessionTimeoutMinutes int `json:"session_timeout_minutes"`
	// MaxUploadSizeMB — лимит размера загружаемого файла
	MaxUploadSizeMB int `json:"max_upload_size_mb"`
	// AllowRegistration — разрешена ли самостоятельная регистрация
	AllowRegistration bool `json:"allow_registration"`
	// LogoURL — адрес загруженного логотипа системы
	LogoURL string `json:"logo_url,omitempty"`
}

// Branding — публичная часть настроек для оформления страницы входа.
// Отдаётся без аутентификации, поэтому содержит только то, что SPA
// нужно до входа пользователя.
type Branding struct {
	SystemName        string `json:"system_name"`
	LogoURL           string `json:"logo_url,omitempty"`
	AllowRegistration bool   `json:"allow_registration"`
}
