package model

import "time"

// Статусы учётной записи.
const (
	UserStatusActive    = "Active"
	UserStatusSuspended = "Suspended"
)

// User — учётная запись пользователя консоли.
type User struct {
	// ID — идентификатор пользователя в Backend
	ID string `json:"id"`
	// Username — логин
	Username string `json:"username"`
	// FullName — полное имя
	FullName string `json:"full_name"`
	// Email — адрес электронной почты
	Email string `json:"email"`
	// Role — код роли (STAFF, ADMIN, SUPER_ADMIN)
	Role string `json:"role"`
	// Region — регион пользователя
	Region string `json:"region"`
	// Status — статус учётной записи (Active, Suspended)
	Status string `json:"status"`
	// LastLoginAt — время последнего входа
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	// CreatedAt — дата регистрации
	CreatedAt time.Time `json:"created_at"`
}

// UserInput — данные формы создания или изменения пользователя.
type UserInput struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Region   string `json:"region"`
}
