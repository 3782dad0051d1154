package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// SyncStateRepository — интерфейс для таблицы sync_state (одна строка).
type SyncStateRepository interface {
	// Get возвращает текущее состояние синхронизации.
	Get(ctx context.Context) (*model.SyncState, error)
	// MarkSuccess фиксирует успешный прогон синхронизации.
	MarkSuccess(ctx context.Context, at time.Time, recordsSynced int) error
	// MarkError фиксирует неудачный прогон синхронизации.
	MarkError(ctx context.Context, syncErr error) error
}

// syncStateRepo — реализация SyncStateRepository.
type syncStateRepo struct {
	db DBTX
}

// NewSyncStateRepository создаёт репозиторий состояния синхронизации.
func NewSyncStateRepository(db DBTX) SyncStateRepository {
	return &syncStateRepo{db: db}
}

func (r *syncStateRepo) Get(ctx context.Context) (*model.SyncState, error) {
	query := `
		SELECT id, last_sync_at, last_status, last_error, records_synced, created_at, updated_at
		FROM sync_state
		WHERE id = 1`

	s := &model.SyncState{}
	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID, &s.LastSyncAt, &s.LastStatus, &s.LastError, &s.RecordsSynced,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения sync_state: %w", err)
	}
	return s, nil
}

func (r *syncStateRepo) MarkSuccess(ctx context.Context, at time.Time, recordsSynced int) error {
	query := `
		UPDATE sync_state
		SET last_sync_at = $1, last_status = $2, last_error = '',
			records_synced = $3, updated_at = NOW()
		WHERE id = 1`

	_, err := r.db.Exec(ctx, query, at, model.SyncStatusOK, recordsSynced)
	if err != nil {
		return fmt.Errorf("ошибка обновления sync_state: %w", err)
	}
	return nil
}

func (r *syncStateRepo) MarkError(ctx context.Context, syncErr error) error {
	query := `
		UPDATE sync_state
		SET last_status = $1, last_error = $2, updated_at = NOW()
		WHERE id = 1`

	_, err := r.db.Exec(ctx, query, model.SyncStatusError, syncErr.Error())
	if err != nil {
		return fmt.Errorf("ошибка обновления sync_state: %w", err)
	}
	return nil
}
