// Пакет contract — OpenAPI контракт консоли и валидация запросов.
// Контракт встроен в бинарь; входящие запросы /api/v1/* проверяются
// против него до обработчиков: неописанный маршрут или тело, не
// соответствующее схеме, отклоняются единообразно.
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/bigkaa/goregistry/console-module/internal/api/errors"
)

//go:embed openapi.yaml
var specData []byte

// Лимит буферизации JSON-тела для валидации.
const bodyValidationLimit = 1 << 20 // 1 MiB

// Contract — загруженный OpenAPI контракт с маршрутизатором.
type Contract struct {
	doc    *openapi3.T
	router routers.Router
	logger *slog.Logger
}

// Load разбирает и валидирует встроенный контракт.
func Load(logger *slog.Logger) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(specData)
	if err != nil {
		return nil, fmt.Errorf("разбор OpenAPI контракта: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI контракта: %w", err)
	}

	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание маршрутизатора контракта: %w", err)
	}

	return &Contract{
		doc:    doc,
		router: router,
		logger: logger.With(slog.String("component", "contract")),
	}, nil
}

// Spec возвращает документ контракта (для GET /api/v1/openapi.json).
func (c *Contract) Spec() *openapi3.T {
	return c.doc
}

// ValidationMiddleware возвращает middleware валидации запросов
// против контракта. Применяется только к путям /api/v1/*.
func (c *Contract) ValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := c.router.FindRoute(r)
			if err != nil {
				apierrors.NotFound(w, "Неизвестный маршрут API")
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}

			// Multipart-тела (загрузка файлов) стримятся в Backend
			// и против схемы не проверяются.
			var bodyCopy []byte
			contentType := r.Header.Get("Content-Type")
			if strings.HasPrefix(contentType, "multipart/") {
				input.Options.ExcludeRequestBody = true
			} else if r.Body != nil && r.Body != http.NoBody {
				// Валидатор вычитывает тело; буферизуем его, чтобы
				// после проверки восстановить для обработчика.
				// Читаем на байт больше лимита: так видно, что тело
				// превышает лимит, а не оборвалось на нём.
				data, readErr := io.ReadAll(io.LimitReader(r.Body, bodyValidationLimit+1))
				if readErr != nil {
					apierrors.ValidationError(w, "Ошибка чтения тела запроса")
					return
				}
				if len(data) > bodyValidationLimit {
					apierrors.WriteError(w, http.StatusRequestEntityTooLarge,
						apierrors.CodeValidationError, "Тело запроса превышает допустимый размер")
					return
				}
				bodyCopy = data
				r.Body = io.NopCloser(bytes.NewReader(data))
			}

			if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
				c.logger.Debug("Запрос отклонён контрактом",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, "Запрос не соответствует контракту API: "+err.Error())
				return
			}

			if bodyCopy != nil {
				r.Body = io.NopCloser(bytes.NewReader(bodyCopy))
			}

			next.ServeHTTP(w, r)
		})
	}
}
