// models.go — DTO запросов и ответов RMS Backend API.
package rmsclient

import (
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// LoginRequest — тело POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse — ответ Backend на удачный вход.
type LoginResponse struct {
	// Token — JWT для последующих запросов
	Token string `json:"token"`
	// ExpiresIn — время жизни токена в секундах
	ExpiresIn int `json:"expires_in"`
	// User — профиль вошедшего пользователя
	User model.User `json:"user"`
}

// RegisterRequest — тело POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

// ProfileUpdateRequest — тело PUT /api/profile.
type ProfileUpdateRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// PasswordChangeRequest — тело POST /api/profile/password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// RecordListParams — параметры GET /api/records.
type RecordListParams struct {
	// Search — строка полнотекстового поиска
	Search string
	// Region — фильтр по региону
	Region string
	// Category — фильтр по категории
	Category string
	// Status — фильтр по статусу жизненного цикла
	Status string
	// Page — номер страницы, с единицы
	Page int
	// PerPage — размер страницы
	PerPage int
}

// RecordListResponse — страница записей реестра.
type RecordListResponse struct {
	Records []model.Record `json:"records"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// RecordStatusRequest — тело PATCH /api/records/{id}/status.
type RecordStatusRequest struct {
	Status string `json:"status"`
}

// VerifyRequest — тело POST /api/records/{id}/verify:
// проверка пароля доступа к файлу записи с ограниченным доступом.
type VerifyRequest struct {
	Password string `json:"password"`
}

// VerifyResponse — результат проверки пароля.
type VerifyResponse struct {
	// Verified — пароль принят
	Verified bool `json:"verified"`
	// DownloadToken — одноразовый токен загрузки файла
	DownloadToken string `json:"download_token,omitempty"`
}

// CategoryCreateRequest — тело POST /api/categories.
type CategoryCreateRequest struct {
	Name        string `json:"name"`
	Scope       string `json:"scope"`
	Description string `json:"description,omitempty"`
}

// TypeCreateRequest — тело POST /api/types.
type TypeCreateRequest struct {
	CategoryID      string `json:"category_id"`
	Name            string `json:"name"`
	RetentionPeriod string `json:"retention_period"`
}

// RegionCreateRequest — тело POST /api/regions и PUT /api/regions/{id}.
type RegionCreateRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Address string `json:"address,omitempty"`
}

// RegionStatusRequest — тело PATCH /api/regions/{id}/status.
type RegionStatusRequest struct {
	Status string `json:"status"`
}

// UserListParams — параметры GET /api/users.
type UserListParams struct {
	Search  string
	Region  string
	Page    int
	PerPage int
}

// UserListResponse — страница пользователей.
type UserListResponse struct {
	Users   []model.User `json:"users"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// UserStatusRequest — тело PATCH /api/users/{id}/status.
type UserStatusRequest struct {
	Status string `json:"status"`
}

// AuditListParams — параметры GET /api/logs.
type AuditListParams struct {
	Username string
	Action   string
	Page     int
	PerPage  int
}

// AuditListResponse — страница журнала действий.
type AuditListResponse struct {
	Entries []model.AuditEntry `json:"entries"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}

// BackupInfo — результат POST /api/backup.
type BackupInfo struct {
	// Filename — имя файла резервной копии
	Filename string `json:"filename"`
	// SizeBytes — размер копии
	SizeBytes int64 `json:"size_bytes"`
	// CreatedAt — время создания
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult — результат POST /api/restore.
type RestoreResult struct {
	// Restored — восстановление выполнено
	Restored bool `json:"restored"`
	// RecordCount — число восстановленных записей
	RecordCount int `json:"record_count"`
}

// errorBody — формат ошибки Backend.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	// Message — плоский формат части старых endpoint'ов
	Message string `json:"message"`
}
