// codex.go — сервис Codex: категории и типы документов.
// Справочник меняется редко, поэтому списки кэшируются в LRU с TTL;
// мутации инвалидируют кэш. Видимость категорий фильтруется по
// области видимости пользователя.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
	"github.com/bigkaa/goregistry/console-module/internal/domain/retention"
	"github.com/bigkaa/goregistry/console-module/internal/domain/scope"
	"github.com/bigkaa/goregistry/console-module/internal/rmsclient"
)

// Prometheus-метрики кэша Codex.
var (
	codexCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_codex_cache_hits_total",
		Help: "Общее количество попаданий в кэш справочника Codex.",
	})
	codexCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_codex_cache_misses_total",
		Help: "Общее количество промахов кэша справочника Codex.",
	})
)

const (
	categoriesCacheKey = "categories"
	typesCachePrefix   = "types:"
)

// CodexService — сервис справочника категорий и типов документов.
type CodexService struct {
	backend   *rmsclient.Client
	catCache  *expirable.LRU[string, []model.Category]
	typeCache *expirable.LRU[string, []model.DocumentType]
	logger    *slog.Logger
}

// NewCodexService создаёт сервис Codex с кэшем справочника.
// maxSize — максимальное количество ключей, ttl — время жизни записи.
func NewCodexService(backend *rmsclient.Client, maxSize int, ttl time.Duration, logger *slog.Logger) *CodexService {
	return &CodexService{
		backend:   backend,
		catCache:  expirable.NewLRU[string, []model.Category](maxSize, nil, ttl),
		typeCache: expirable.NewLRU[string, []model.DocumentType](maxSize, nil, ttl),
		logger:    logger.With(slog.String("component", "codex_service")),
	}
}

// Categories возвращает категории, видимые пользователю:
// глобальные, своего региона, а для Super Admin — все.
func (s *CodexService) Categories(ctx context.Context, token string, p scope.Principal) ([]model.Category, error) {
	categories, ok := s.catCache.Get(categoriesCacheKey)
	if ok {
		codexCacheHitsTotal.Inc()
	} else {
		codexCacheMissesTotal.Inc()
		var err error
		categories, err = s.backend.ListCategories(ctx, token)
		if err != nil {
			return nil, mapBackendError("получение категорий", err)
		}
		s.catCache.Add(categoriesCacheKey, categories)
	}

	return scope.VisibleCategories(p, categories), nil
}

// CreateCategory создаёт категорию справочника. Только Super Admin.
func (s *CodexService) CreateCategory(ctx context.Context, token string, p scope.Principal, req rmsclient.CategoryCreateRequest) (*model.Category, error) {
	if !p.Role.CanManageCodex() {
		return nil, ErrForbidden
	}
	if req.Name == "" || req.Scope == "" {
		return nil, ErrValidation
	}

	category, err := s.backend.CreateCategory(ctx, token, req)
	if err != nil {
		return nil, mapBackendError("создание категории", err)
	}

	s.catCache.Remove(categoriesCacheKey)
	s.logger.Info("Категория создана",
		slog.String("category_id", category.ID),
		slog.String("name", category.Name),
		slog.String("scope", category.Scope),
	)
	return category, nil
}

// DeleteCategory удаляет категорию вместе с типами. Только Super Admin.
func (s *CodexService) DeleteCategory(ctx context.Context, token string, p scope.Principal, id string) error {
	if !p.Role.CanManageCodex() {
		return ErrForbidden
	}

	if err := s.backend.DeleteCategory(ctx, token, id); err != nil {
		return mapBackendError("удаление категории", err)
	}

	s.catCache.Remove(categoriesCacheKey)
	s.typeCache.Remove(typesCachePrefix + id)
	s.logger.Info("Категория удалена", slog.String("category_id", id))
	return nil
}

// Types возвращает типы документов категории с проверкой её видимости.
func (s *CodexService) Types(ctx context.Context, token string, p scope.Principal, categoryID string) ([]model.DocumentType, error) {
	categories, err := s.Categories(ctx, token, p)
	if err != nil {
		return nil, err
	}
	visible := false
	for _, c := range categories {
		if c.ID == categoryID {
			visible = true
			break
		}
	}
	if !visible {
		return nil, ErrNotFound
	}

	key := typesCachePrefix + categoryID
	types, ok := s.typeCache.Get(key)
	if ok {
		codexCacheHitsTotal.Inc()
		return types, nil
	}
	codexCacheMissesTotal.Inc()

	types, err = s.backend.ListTypes(ctx, token, categoryID)
	if err != nil {
		return nil, mapBackendError("получение типов документов", err)
	}
	s.typeCache.Add(key, types)
	return types, nil
}

// CreateType создаёт тип документа с правилом хранения.
// Срок хранения валидируется до запроса к Backend. Только Super Admin.
func (s *CodexService) CreateType(ctx context.Context, token string, p scope.Principal, req rmsclient.TypeCreateRequest) (*model.DocumentType, error) {
	if !p.Role.CanManageCodex() {
		return nil, ErrForbidden
	}
	if req.Name == "" || req.CategoryID == "" {
		return nil, ErrValidation
	}
	spec, err := retention.Parse(req.RetentionPeriod)
	if err != nil {
		return nil, ErrValidation
	}
	// Нормализованная форма ("1 Year" → "1 Years")
	req.RetentionPeriod = spec.String()

	docType, err := s.backend.CreateType(ctx, token, req)
	if err != nil {
		return nil, mapBackendError("создание типа документа", err)
	}

	s.typeCache.Remove(typesCachePrefix + req.CategoryID)
	s.logger.Info("Тип документа создан",
		slog.String("type_id", docType.ID),
		slog.String("category_id", req.CategoryID),
		slog.String("retention_period", req.RetentionPeriod),
	)
	return docType, nil
}

// DeleteType удаляет тип документа. Только Super Admin.
// Изменение справочника не затрагивает даты утилизации уже
// зарегистрированных записей.
func (s *CodexService) DeleteType(ctx context.Context, token string, p scope.Principal, categoryID, id string) error {
	if !p.Role.CanManageCodex() {
		return ErrForbidden
	}

	if err := s.backend.DeleteType(ctx, token, id); err != nil {
		return mapBackendError("удаление типа документа", err)
	}

	s.typeCache.Remove(typesCachePrefix + categoryID)
	s.logger.Info("Тип документа удалён", slog.String("type_id", id))
	return nil
}

// InvalidateCache сбрасывает кэш справочника целиком.
// Вызывается после восстановления из резервной копии.
func (s *CodexService) InvalidateCache() {
	s.catCache.Purge()
	s.typeCache.Purge()
}
