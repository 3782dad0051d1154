package model

import "time"

// Статусы последнего прогона синхронизации зеркала.
const (
	SyncStatusOK    = "ok"
	SyncStatusError = "error"
)

// SyncState — состояние синхронизации зеркала записей (одна строка).
type SyncState struct {
	// ID — всегда 1
	ID int `json:"id"`
	// LastSyncAt — время последней успешной синхронизации
	LastSyncAt *time.Time `json:"last_sync_at"`
	// LastStatus — статус последнего прогона (ok, error)
	LastStatus string `json:"last_status"`
	// LastError — текст ошибки последнего прогона (пусто при успехе)
	LastError string `json:"last_error"`
	// RecordsSynced — количество записей в последнем прогоне
	RecordsSynced int `json:"records_synced"`
	// CreatedAt — дата создания строки
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt — дата последнего изменения
	UpdatedAt time.Time `json:"updated_at"`
}
