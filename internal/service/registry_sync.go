// registry_sync.go — сервис периодической синхронизации зеркала записей.
//
// RegistrySyncService запускает фоновую горутину с ticker (CM_SYNC_INTERVAL),
// которая постранично выгружает записи из RMS Backend под служебной
// учётной записью и складывает их в локальное зеркало PostgreSQL.
//
// SyncOnce выполняет полный прогон:
//  1. Постраничный GET /api/records → batch upsert в record_mirror
//  2. Удаление записей, отсутствующих в Backend
//  3. Обновление sync_state
//
// Prometheus-метрики:
//   - cm_sync_duration_seconds — длительность прогона
//   - cm_sync_records_total — количество обработанных записей (по операциям)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/repository"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// Prometheus-метрики синхронизации зеркала.
var (
	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_sync_duration_seconds",
		Help:    "Длительность синхронизации зеркала записей с Backend",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s … ~204s
	})

	syncRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_sync_records_total",
		Help: "Количество обработанных записей при синхронизации",
	}, []string{"operation"}) // operation: added, updated, deleted
)

// RegistrySyncService — фоновый сервис синхронизации зеркала записей.
type RegistrySyncService struct {
	backend    *rmsclient.Client
	tokens     *rmsclient.ServiceTokenSource
	mirrorRepo repository.RecordMirrorRepository
	syncRepo   repository.SyncStateRepository
	tx         *repository.TxRunner
	pageSize   int
	interval   time.Duration
	logger     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistrySyncService создаёт сервис синхронизации зеркала.
// tx может быть nil; тогда прогон выполняется без транзакции и
// читатели зеркала могут увидеть частично обновлённые данные.
func NewRegistrySyncService(
	backend *rmsclient.Client,
	tokens *rmsclient.ServiceTokenSource,
	mirrorRepo repository.RecordMirrorRepository,
	syncRepo repository.SyncStateRepository,
	tx *repository.TxRunner,
	pageSize int,
	interval time.Duration,
	logger *slog.Logger,
) *RegistrySyncService {
	return &RegistrySyncService{
		backend:    backend,
		tokens:     tokens,
		mirrorRepo: mirrorRepo,
		syncRepo:   syncRepo,
		tx:         tx,
		pageSize:   pageSize,
		interval:   interval,
		logger:     logger.With(slog.String("component", "registry_sync")),
	}
}

// Start запускает фоновую горутину с периодической синхронизацией.
// Первый прогон выполняется сразу, не дожидаясь первого тика.
func (s *RegistrySyncService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.logger.Info("Периодическая синхронизация зеркала запущена",
			slog.String("interval", s.interval.String()),
			slog.Int("page_size", s.pageSize),
		)

		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Периодическая синхронизация зеркала остановлена")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop останавливает фоновую горутину и ждёт завершения.
func (s *RegistrySyncService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// runOnce выполняет один прогон и фиксирует результат в sync_state.
func (s *RegistrySyncService) runOnce(ctx context.Context) {
	total, err := s.SyncOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("Ошибка синхронизации зеркала", slog.String("error", err.Error()))
		if markErr := s.syncRepo.MarkError(ctx, err); markErr != nil {
			s.logger.Warn("Не удалось записать ошибку в sync_state",
				slog.String("error", markErr.Error()))
		}
		return
	}
	if err := s.syncRepo.MarkSuccess(ctx, time.Now().UTC(), total); err != nil {
		s.logger.Warn("Не удалось обновить sync_state", slog.String("error", err.Error()))
	}
}

// SyncOnce выполняет полную синхронизацию зеркала:
// 1. Постраничная выгрузка записей под служебной учётной записью
// 2. Batch upsert в record_mirror
// 3. Удаление записей, не вошедших в прогон
// При настроенном TxRunner прогон фиксируется одной транзакцией:
// деградированные чтения зеркала не видят частично обновлённый
// реестр. Возвращает общее число синхронизированных записей.
func (s *RegistrySyncService) SyncOnce(ctx context.Context) (int, error) {
	startedAt := time.Now().UTC()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return 0, fmt.Errorf("получение служебного токена: %w", err)
	}

	var result syncResult
	if s.tx != nil {
		err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
			var passErr error
			result, passErr = s.syncPass(ctx, token, repository.NewRecordMirrorRepository(tx), startedAt)
			return passErr
		})
	} else {
		result, err = s.syncPass(ctx, token, s.mirrorRepo, startedAt)
	}
	if err != nil {
		return result.synced, err
	}

	duration := time.Since(startedAt).Seconds()
	syncDuration.Observe(duration)
	syncRecordsTotal.WithLabelValues("added").Add(float64(result.added))
	syncRecordsTotal.WithLabelValues("updated").Add(float64(result.updated))
	syncRecordsTotal.WithLabelValues("deleted").Add(float64(result.deleted))

	s.logger.Info("Синхронизация зеркала завершена",
		slog.Int("records", result.synced),
		slog.Int("added", result.added),
		slog.Int("updated", result.updated),
		slog.Int("deleted", result.deleted),
		slog.String("duration", fmt.Sprintf("%.2fs", duration)),
	)

	return result.synced, nil
}

// syncResult — итоги одного прогона синхронизации.
type syncResult struct {
	synced  int
	added   int
	updated int
	deleted int
}

// syncPass выгружает записи из Backend в репозиторий repo.
// repo может быть привязан к транзакции или к пулу.
func (s *RegistrySyncService) syncPass(ctx context.Context, token string, repo repository.RecordMirrorRepository, startedAt time.Time) (syncResult, error) {
	var result syncResult

	page := 1
	for {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		resp, err := s.backend.ListRecords(ctx, token, rmsclient.RecordListParams{
			Page:    page,
			PerPage: s.pageSize,
		})
		if err != nil {
			// Токен мог быть отозван: сбрасываем кэш, повтор на следующем тике
			if errors.Is(err, rmsclient.ErrSessionInvalid) {
				s.tokens.Invalidate()
			}
			return result, fmt.Errorf("выгрузка записей (page=%d): %w", page, err)
		}

		if len(resp.Records) == 0 {
			break
		}

		records := make([]*model.Record, 0, len(resp.Records))
		for i := range resp.Records {
			records = append(records, &resp.Records[i])
		}

		added, updated, err := repo.BatchUpsert(ctx, records, startedAt)
		if err != nil {
			return result, fmt.Errorf("batch upsert записей (page=%d): %w", page, err)
		}
		result.added += added
		result.updated += updated
		result.synced += len(records)

		s.logger.Debug("Страница записей обработана",
			slog.Int("page", page),
			slog.Int("count", len(records)),
			slog.Int("added", added),
			slog.Int("updated", updated),
		)

		if len(resp.Records) < s.pageSize {
			break
		}
		page++
	}

	// Записи, не затронутые этим прогоном, в Backend больше не существуют
	deleted, err := repo.DeleteMissing(ctx, startedAt)
	if err != nil {
		return result, fmt.Errorf("удаление отсутствующих записей: %w", err)
	}
	result.deleted = deleted
	return result, nil
}
