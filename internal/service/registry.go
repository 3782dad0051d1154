// registry.go — сервис реестра записей.
// Все операции выполняются через RMS Backend API; консоль добавляет
// проверку области видимости до запроса и вычисленный статус
// утилизации после ответа. Чтение при недоступном Backend
// деградирует до локального зеркала, изменения — нет.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/rbac"
	"github.com/bigkaa/goregistry/console-module/internal/domain/retention"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/repository"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// RecordView — запись реестра со статусом утилизации для отображения.
type RecordView struct {
	model.Record
	// Disposal — классификация срока хранения на момент запроса
	Disposal DisposalView `json:"disposal"`
}

// DisposalView — статус утилизации в формате ответа API.
type DisposalView struct {
	Status        string     `json:"status"`
	Label         string     `json:"label"`
	Date          *time.Time `json:"date,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

// RecordPage — страница записей с пагинацией.
type RecordPage struct {
	Records []RecordView `json:"records"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// RegistryService — сервис реестра записей.
type RegistryService struct {
	backend *rmsclient.Client
	mirror  repository.RecordMirrorRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewRegistryService создаёт сервис реестра.
// mirror равен nil при выключенном зеркале; тогда недоступность
// Backend отдаётся клиенту как есть.
func NewRegistryService(backend *rmsclient.Client, mirror repository.RecordMirrorRepository, logger *slog.Logger) *RegistryService {
	return &RegistryService{
		backend: backend,
		mirror:  mirror,
		logger:  logger.With(slog.String("component", "registry_service")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// decorate вычисляет статус утилизации записи.
// Сохранённая дата утилизации авторитетна: изменение правила
// хранения не влияет на уже зарегистрированные записи. Для старых
// записей без даты срок вычисляется от даты документа.
func (s *RegistryService) decorate(rec model.Record) RecordView {
	date := rec.DisposalDate
	if date == nil && rec.RetentionPeriod != "" {
		if spec, err := retention.Parse(rec.RetentionPeriod); err == nil && !spec.Permanent() {
			if d, ok := spec.DisposalDate(rec.DocumentDate); ok {
				date = &d
			}
		}
	}
	d := retention.ClassifyDate(date, s.now())
	return RecordView{
		Record: rec,
		Disposal: DisposalView{
			Status:        string(d.Status),
			Label:         d.Label,
			Date:          d.Date,
			DaysRemaining: d.DaysRemaining,
		},
	}
}

// List возвращает страницу записей в области видимости пользователя.
// Для всех ролей, кроме Super Admin, фильтр региона принудительно
// ограничивается назначенным регионом.
func (s *RegistryService) List(ctx context.Context, token string, p scope.Principal, params rmsclient.RecordListParams) (*RecordPage, error) {
	if p.Role != rbac.RoleSuperAdmin {
		params.Region = p.Region
	}

	resp, err := s.backend.ListRecords(ctx, token, params)
	if err != nil {
		mapped := mapBackendError("получение списка записей", err)
		if s.mirror != nil && errors.Is(mapped, ErrBackendUnavailable) {
			return s.listFromMirror(ctx, p, params)
		}
		return nil, mapped
	}

	page := &RecordPage{
		Records: make([]RecordView, 0, len(resp.Records)),
		Total:   resp.Total,
		Page:    resp.Page,
		PerPage: resp.PerPage,
	}
	for _, rec := range scope.VisibleRecords(p, resp.Records) {
		page.Records = append(page.Records, s.decorate(rec))
	}
	return page, nil
}

// Get возвращает запись по идентификатору с проверкой видимости.
func (s *RegistryService) Get(ctx context.Context, token string, p scope.Principal, id string) (*RecordView, error) {
	rec, err := s.backend.GetRecord(ctx, token, id)
	if err != nil {
		mapped := mapBackendError("получение записи", err)
		if s.mirror != nil && errors.Is(mapped, ErrBackendUnavailable) {
			return s.getFromMirror(ctx, p, id)
		}
		return nil, mapped
	}
	if p.Role != rbac.RoleSuperAdmin && rec.Region != p.Region {
		// Чужой регион неотличим от отсутствующей записи
		return nil, ErrNotFound
	}
	view := s.decorate(*rec)
	return &view, nil
}

// mirrorFilters переводит параметры списка Backend в фильтры зеркала.
func mirrorFilters(p scope.Principal, params rmsclient.RecordListParams) repository.RecordFilters {
	filters := repository.RecordFilters{Regions: scopeRegions(p)}
	if params.Region != "" {
		filters.Regions = []string{params.Region}
	}
	if params.Category != "" {
		filters.CategoryID = &params.Category
	}
	if params.Status != "" {
		filters.Status = &params.Status
	}
	if params.Search != "" {
		filters.Search = &params.Search
	}
	return filters
}

// listFromMirror отдаёт страницу записей из локального зеркала.
// Деградированный режим: реестр продолжает показывать данные
// последней синхронизации, пока Backend не ответит.
func (s *RegistryService) listFromMirror(ctx context.Context, p scope.Principal, params rmsclient.RecordListParams) (*RecordPage, error) {
	filters := mirrorFilters(p, params)

	pageNum := params.Page
	if pageNum < 1 {
		pageNum = 1
	}
	perPage := params.PerPage
	if perPage < 1 {
		perPage = 20
	}

	total, err := s.mirror.Count(ctx, filters)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	records, err := s.mirror.List(ctx, filters, perPage, (pageNum-1)*perPage)
	if err != nil {
		return nil, ErrBackendUnavailable
	}

	s.logger.Warn("Backend недоступен, реестр отдан из зеркала",
		slog.Int("count", len(records)),
	)

	page := &RecordPage{
		Records: make([]RecordView, 0, len(records)),
		Total:   total,
		Page:    pageNum,
		PerPage: perPage,
	}
	for _, rec := range records {
		page.Records = append(page.Records, s.decorate(*rec))
	}
	return page, nil
}

// getFromMirror отдаёт запись из зеркала с той же проверкой
// видимости, что и прямой путь.
func (s *RegistryService) getFromMirror(ctx context.Context, p scope.Principal, id string) (*RecordView, error) {
	rec, err := s.mirror.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrBackendUnavailable
	}
	if p.Role != rbac.RoleSuperAdmin && rec.Region != p.Region {
		return nil, ErrNotFound
	}

	s.logger.Warn("Backend недоступен, запись отдана из зеркала",
		slog.String("record_id", id),
	)

	view := s.decorate(*rec)
	return &view, nil
}

// Create регистрирует новую запись, с файлом или без.
// Права: Super Admin — любой регион, остальные роли — только свой.
func (s *RegistryService) Create(ctx context.Context, token string, p scope.Principal, input model.RecordInput, filename string, file io.Reader) (*RecordView, error) {
	if !scope.CanMutate(p, input.Region) {
		return nil, ErrForbidden
	}

	rec, err := s.backend.CreateRecord(ctx, token, input, filename, file)
	if err != nil {
		return nil, mapBackendError("создание записи", err)
	}

	s.logger.Info("Запись зарегистрирована",
		slog.String("record_id", rec.ID),
		slog.String("region", rec.Region),
		slog.String("title", rec.Title),
	)

	view := s.decorate(*rec)
	return &view, nil
}

// Update изменяет метаданные записи.
func (s *RegistryService) Update(ctx context.Context, token string, p scope.Principal, id string, input model.RecordInput) (*RecordView, error) {
	current, err := s.Get(ctx, token, p, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(p, current.Region) {
		return nil, ErrForbidden
	}

	rec, err := s.backend.UpdateRecord(ctx, token, id, input)
	if err != nil {
		return nil, mapBackendError("обновление записи", err)
	}

	s.logger.Info("Запись обновлена", slog.String("record_id", id))

	view := s.decorate(*rec)
	return &view, nil
}

// SetStatus переводит запись в другой статус жизненного цикла.
func (s *RegistryService) SetStatus(ctx context.Context, token string, p scope.Principal, id, status string) (*RecordView, error) {
	switch status {
	case model.RecordStatusActive, model.RecordStatusArchived, model.RecordStatusDisposed:
	default:
		return nil, ErrValidation
	}

	current, err := s.Get(ctx, token, p, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutate(p, current.Region) {
		return nil, ErrForbidden
	}

	rec, err := s.backend.SetRecordStatus(ctx, token, id, status)
	if err != nil {
		return nil, mapBackendError("смена статуса записи", err)
	}

	s.logger.Info("Статус записи изменён",
		slog.String("record_id", id),
		slog.String("status", status),
	)

	view := s.decorate(*rec)
	return &view, nil
}

// Delete удаляет запись реестра.
func (s *RegistryService) Delete(ctx context.Context, token string, p scope.Principal, id string) error {
	current, err := s.Get(ctx, token, p, id)
	if err != nil {
		return err
	}
	if !scope.CanMutate(p, current.Region) {
		return ErrForbidden
	}

	if err := s.backend.DeleteRecord(ctx, token, id); err != nil {
		return mapBackendError("удаление записи", err)
	}

	s.logger.Info("Запись удалена", slog.String("record_id", id))
	return nil
}

// Verify проверяет пароль доступа к файлу записи с ограниченным
// доступом. Backend возвращает одноразовый токен загрузки.
func (s *RegistryService) Verify(ctx context.Context, token string, p scope.Principal, id, password string) (*rmsclient.VerifyResponse, error) {
	if _, err := s.Get(ctx, token, p, id); err != nil {
		return nil, err
	}

	resp, err := s.backend.VerifyRecord(ctx, token, id, password)
	if err != nil {
		return nil, mapBackendError("проверка пароля записи", err)
	}
	return resp, nil
}

// Download открывает поток файла записи. Для записей с ограниченным
// доступом Backend требует предварительной проверки пароля.
// Возвращает поток, content type и ошибку.
func (s *RegistryService) Download(ctx context.Context, token string, p scope.Principal, id string) (io.ReadCloser, string, error) {
	rec, err := s.Get(ctx, token, p, id)
	if err != nil {
		return nil, "", err
	}
	if !rec.HasFile() {
		return nil, "", ErrNotFound
	}

	stream, contentType, err := s.backend.DownloadFile(ctx, token, rec.FilePath)
	if err != nil {
		return nil, "", mapBackendError("загрузка файла записи", err)
	}
	return stream, contentType, nil
}
