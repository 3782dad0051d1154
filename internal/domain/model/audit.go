package model

import "time"

// AuditEntry — запись журнала действий, возвращаемая Backend-ом.
type AuditEntry struct {
	// ID — идентификатор записи журнала
	ID string `json:"id"`
	// Username — логин инициатора действия
	Username string `json:"username"`
	// Action — код действия (LOGIN, RECORD_CREATE, USER_UPDATE, ...)
	Action string `json:"action"`
	// Details — человекочитаемое описание действия
	Details string `json:"details"`
	// IPAddress — адрес клиента
	IPAddress string `json:"ip_address,omitempty"`
	// CreatedAt — время события
	CreatedAt time.Time `json:"created_at"`
}
