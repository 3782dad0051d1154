package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// RecordMirrorRepository — интерфейс доступа к таблице record_mirror.
type RecordMirrorRepository interface {
	// GetByID возвращает запись зеркала по идентификатору.
	GetByID(ctx context.Context, recordID string) (*model.Record, error)
	// List возвращает записи зеркала с фильтрацией.
	List(ctx context.Context, filters RecordFilters, limit, offset int) ([]*model.Record, error)
	// Count возвращает количество записей с фильтрацией.
	Count(ctx context.Context, filters RecordFilters) (int, error)
	// BatchUpsert вставляет или обновляет пачку записей (для sync).
	BatchUpsert(ctx context.Context, records []*model.Record, syncedAt time.Time) (added, updated int, err error)
	// DeleteMissing удаляет записи, не вошедшие в последний прогон синхронизации.
	DeleteMissing(ctx context.Context, syncedBefore time.Time) (int, error)
	// CountByStatus возвращает количество записей по статусам жизненного цикла.
	CountByStatus(ctx context.Context, regions []string) (map[string]int, error)
	// CountByRegion возвращает количество записей по регионам.
	CountByRegion(ctx context.Context) (map[string]int, error)
	// ListDisposalsDue возвращает записи с датой утилизации раньше before.
	ListDisposalsDue(ctx context.Context, regions []string, before time.Time, limit int) ([]*model.Record, error)
}

// RecordFilters — фильтры для списка записей зеркала.
// Regions ограничивает выборку областью видимости пользователя;
// пустой срез означает отсутствие ограничения (SuperAdmin).
type RecordFilters struct {
	Regions    []string
	CategoryID *string
	TypeID     *string
	Status     *string
	Search     *string
}

// recordMirrorRepo — реализация RecordMirrorRepository.
type recordMirrorRepo struct {
	db DBTX
}

// NewRecordMirrorRepository создаёт репозиторий зеркала записей.
func NewRecordMirrorRepository(db DBTX) RecordMirrorRepository {
	return &recordMirrorRepo{db: db}
}

const recordColumns = `record_id, title, category_id, category_name, type_id, type_name,
		region, status, retention_period, disposal_date, document_date, restricted,
		file_path, file_hash, verify_status, created_by, record_created_at, record_updated_at`

func scanRecord(row pgx.Row) (*model.Record, error) {
	rec := &model.Record{}
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.CategoryID, &rec.CategoryName, &rec.TypeID, &rec.TypeName,
		&rec.Region, &rec.Status, &rec.RetentionPeriod, &rec.DisposalDate, &rec.DocumentDate,
		&rec.Restricted, &rec.FilePath, &rec.FileHash, &rec.VerifyStatus, &rec.CreatedBy,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *recordMirrorRepo) GetByID(ctx context.Context, recordID string) (*model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM record_mirror WHERE record_id = $1`, recordColumns)

	rec, err := scanRecord(r.db.QueryRow(ctx, query, recordID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи зеркала: %w", err)
	}
	return rec, nil
}

// buildRecordWhere строит WHERE-условие и аргументы для фильтрации записей.
func buildRecordWhere(filters RecordFilters, startArg int) (string, []any) {
	var conditions []string
	var args []any
	argNum := startArg

	if len(filters.Regions) > 0 {
		conditions = append(conditions, fmt.Sprintf("region = ANY($%d)", argNum))
		args = append(args, filters.Regions)
		argNum++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argNum))
		args = append(args, *filters.CategoryID)
		argNum++
	}
	if filters.TypeID != nil {
		conditions = append(conditions, fmt.Sprintf("type_id = $%d", argNum))
		args = append(args, *filters.TypeID)
		argNum++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filters.Status)
		argNum++
	}
	if filters.Search != nil {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argNum))
		args = append(args, "%"+*filters.Search+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

func (r *recordMirrorRepo) List(ctx context.Context, filters RecordFilters, limit, offset int) ([]*model.Record, error) {
	where, args := buildRecordWhere(filters, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT %s
		FROM record_mirror
		%s
		ORDER BY document_date DESC, record_id
		LIMIT $%d OFFSET $%d`, recordColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей зеркала: %w", err)
	}
	defer rows.Close()

	var result []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи зеркала: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *recordMirrorRepo) Count(ctx context.Context, filters RecordFilters) (int, error) {
	where, args := buildRecordWhere(filters, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM record_mirror %s`, where)

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей зеркала: %w", err)
	}
	return count, nil
}

// BatchUpsert вставляет или обновляет записи (INSERT ON CONFLICT UPDATE).
// Используется при синхронизации зеркала с Backend.
// Возвращает количество добавленных и обновлённых записей.
func (r *recordMirrorRepo) BatchUpsert(ctx context.Context, records []*model.Record, syncedAt time.Time) (added, updated int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	for _, rec := range records {
		query := `
			INSERT INTO record_mirror (record_id, title, category_id, category_name,
				type_id, type_name, region, status, retention_period, disposal_date,
				document_date, restricted, file_path, file_hash, verify_status,
				created_by, record_created_at, record_updated_at, synced_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (record_id) DO UPDATE SET
				title = EXCLUDED.title,
				category_id = EXCLUDED.category_id,
				category_name = EXCLUDED.category_name,
				type_id = EXCLUDED.type_id,
				type_name = EXCLUDED.type_name,
				region = EXCLUDED.region,
				status = EXCLUDED.status,
				retention_period = EXCLUDED.retention_period,
				disposal_date = EXCLUDED.disposal_date,
				document_date = EXCLUDED.document_date,
				restricted = EXCLUDED.restricted,
				file_path = EXCLUDED.file_path,
				file_hash = EXCLUDED.file_hash,
				verify_status = EXCLUDED.verify_status,
				record_updated_at = EXCLUDED.record_updated_at,
				synced_at = EXCLUDED.synced_at
			RETURNING (xmax = 0) AS is_insert`

		var isInsert bool
		err := r.db.QueryRow(ctx, query,
			rec.ID, rec.Title, rec.CategoryID, rec.CategoryName,
			rec.TypeID, rec.TypeName, rec.Region, rec.Status, rec.RetentionPeriod,
			rec.DisposalDate, rec.DocumentDate, rec.Restricted, rec.FilePath,
			rec.FileHash, rec.VerifyStatus, rec.CreatedBy, rec.CreatedAt, rec.UpdatedAt,
			syncedAt,
		).Scan(&isInsert)
		if err != nil {
			return added, updated, fmt.Errorf("ошибка upsert записи %s: %w", rec.ID, err)
		}
		if isInsert {
			added++
		} else {
			updated++
		}
	}
	return added, updated, nil
}

// DeleteMissing удаляет записи, которые не были затронуты синхронизацией
// после syncedBefore — значит, в Backend их больше нет.
// Возвращает количество удалённых записей.
func (r *recordMirrorRepo) DeleteMissing(ctx context.Context, syncedBefore time.Time) (int, error) {
	query := `DELETE FROM record_mirror WHERE synced_at < $1`

	tag, err := r.db.Exec(ctx, query, syncedBefore)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления устаревших записей зеркала: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *recordMirrorRepo) CountByStatus(ctx context.Context, regions []string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM record_mirror GROUP BY status`
	args := []any{}
	if len(regions) > 0 {
		query = `SELECT status, COUNT(*) FROM record_mirror WHERE region = ANY($1) GROUP BY status`
		args = append(args, regions)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта записей по статусам: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика статусов: %w", err)
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *recordMirrorRepo) CountByRegion(ctx context.Context) (map[string]int, error) {
	query := `SELECT region, COUNT(*) FROM record_mirror GROUP BY region`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта записей по регионам: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var region string
		var count int
		if err := rows.Scan(&region, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика регионов: %w", err)
		}
		result[region] = count
	}
	return result, rows.Err()
}

// ListDisposalsDue возвращает активные записи с датой утилизации раньше before,
// отсортированные по близости срока. Записи со статусом Disposed не учитываются.
func (r *recordMirrorRepo) ListDisposalsDue(ctx context.Context, regions []string, before time.Time, limit int) ([]*model.Record, error) {
	var conditions []string
	var args []any

	conditions = append(conditions, "disposal_date IS NOT NULL")
	args = append(args, before)
	conditions = append(conditions, "disposal_date < $1")
	args = append(args, model.RecordStatusDisposed)
	conditions = append(conditions, "status != $2")
	if len(regions) > 0 {
		args = append(args, regions)
		conditions = append(conditions, "region = ANY($3)")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM record_mirror
		WHERE %s
		ORDER BY disposal_date ASC
		LIMIT $%d`, recordColumns, strings.Join(conditions, " AND "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей с истекающим сроком: %w", err)
	}
	defer rows.Close()

	var result []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи зеркала: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
