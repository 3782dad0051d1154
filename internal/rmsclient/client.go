// Пакет rmsclient — HTTP-клиент к RMS Backend API.
// Поддерживает TLS с кастомным CA (CM_BACKEND_CA_CERT_PATH).
// Все операции консоли транслируются в запросы Backend с bearer-токеном
// пользователя; ответ 401 превращается в ErrSessionInvalid.
package rmsclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// Ошибки, транслируемые из статусов Backend.
var (
	// ErrSessionInvalid — Backend отклонил токен (401); сессия
	// пользователя подлежит сбросу.
	ErrSessionInvalid = errors.New("сессия отклонена Backend")
	// ErrForbidden — недостаточно прав (403).
	ErrForbidden = errors.New("операция запрещена Backend")
	// ErrNotFound — ресурс не найден (404).
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт данных (409).
	ErrConflict = errors.New("конфликт данных")
	// ErrValidation — Backend отклонил входные данные (400/422).
	ErrValidation = errors.New("данные отклонены Backend")
)

// Client — HTTP-клиент к RMS Backend API.
type Client struct {
	baseURL    string // Базовый URL Backend (без trailing slash)
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент RMS Backend.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(baseURL, caCertPath string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата Backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат Backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "rms_client")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// BaseURL возвращает базовый URL Backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckReady проверяет доступность Backend через публичный JWKS endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
func (c *Client) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/api/.well-known/jwks.json", "", nil)
	if err != nil {
		return "fail", fmt.Sprintf("RMS Backend недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("RMS Backend вернул статус %d", resp.StatusCode)
	}
	return "ok", "подключение активно"
}

// --- HTTP helpers ---

// do выполняет запрос к Backend. token — bearer-токен пользователя
// (пустая строка для публичных endpoint'ов), body — JSON-тело или nil.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос %s %s к Backend: %w", method, path, err)
	}
	return resp, nil
}

// decodeResponse проверяет статус и декодирует JSON ответ в target.
func (c *Client) decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа Backend: %w", err)
		}
	}
	return nil
}

// checkStatus транслирует статусы ошибок Backend в sentinel-ошибки.
// Тело ответа при ошибке вычитывается для диагностики.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := extractMessage(data)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrSessionInvalid, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, message)
	default:
		return fmt.Errorf("Backend вернул статус %d: %s", resp.StatusCode, message)
	}
}

// extractMessage достаёт человекочитаемое сообщение из тела ошибки.
func extractMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error.Message != "" {
			return body.Error.Message
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return string(data)
}

// --- Аутентификация и профиль ---

// Login выполняет вход. POST /api/auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var login LoginResponse
	if err := c.decodeResponse(resp, &login); err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	return &login, nil
}

// Register регистрирует нового пользователя. POST /api/auth/register.
// Доступность операции определяется настройкой AllowRegistration.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/register", "", reg)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	return &user, nil
}

// Profile возвращает профиль владельца токена. GET /api/profile.
func (c *Client) Profile(ctx context.Context, token string) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/profile", token, nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	return &user, nil
}

// UpdateProfile изменяет профиль владельца токена. PUT /api/profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd ProfileUpdateRequest) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/profile", token, upd)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	return &user, nil
}

// ChangePassword меняет пароль владельца токена. POST /api/profile/password.
func (c *Client) ChangePassword(ctx context.Context, token string, req PasswordChangeRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/profile/password", token, req)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	return nil
}

// --- Панель мониторинга ---

// Stats возвращает агрегаты панели мониторинга. GET /api/stats.
func (c *Client) Stats(ctx context.Context, token string) (*model.Stats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/stats", token, nil)
	if err != nil {
		return nil, err
	}

	var stats model.Stats
	if err := c.decodeResponse(resp, &stats); err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}
	return &stats, nil
}

// --- Записи реестра ---

// ListRecords возвращает страницу записей. GET /api/records.
func (c *Client) ListRecords(ctx context.Context, token string, params RecordListParams) (*RecordListResponse, error) {
	q := url.Values{}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Region != "" {
		q.Set("region", params.Region)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}

	path := "/api/records"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var list RecordListResponse
	if err := c.decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("ListRecords: %w", err)
	}
	return &list, nil
}

// GetRecord возвращает запись по идентификатору. GET /api/records/{id}.
func (c *Client) GetRecord(ctx context.Context, token, id string) (*model.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/records/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var record model.Record
	if err := c.decodeResponse(resp, &record); err != nil {
		return nil, fmt.Errorf("GetRecord: %w", err)
	}
	return &record, nil
}

// CreateRecord создаёт запись реестра. POST /api/records, multipart:
// поле metadata с JSON-формой и необязательное поле file с документом.
func (c *Client) CreateRecord(ctx context.Context, token string, input model.RecordInput, filename string, file io.Reader) (*model.Record, error) {
	body, contentType, err := buildRecordForm(input, filename, file)
	if err != nil {
		return nil, fmt.Errorf("CreateRecord: %w", err)
	}

	resp, err := c.doMultipart(ctx, http.MethodPost, "/api/records", token, contentType, body)
	if err != nil {
		return nil, err
	}

	var record model.Record
	if err := c.decodeResponse(resp, &record); err != nil {
		return nil, fmt.Errorf("CreateRecord: %w", err)
	}
	return &record, nil
}

// UpdateRecord изменяет метаданные записи. PUT /api/records/{id}.
func (c *Client) UpdateRecord(ctx context.Context, token, id string, input model.RecordInput) (*model.Record, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/records/"+url.PathEscape(id), token, input)
	if err != nil {
		return nil, err
	}

	var record model.Record
	if err := c.decodeResponse(resp, &record); err != nil {
		return nil, fmt.Errorf("UpdateRecord: %w", err)
	}
	return &record, nil
}

// SetRecordStatus меняет статус жизненного цикла записи.
// PATCH /api/records/{id}/status.
func (c *Client) SetRecordStatus(ctx context.Context, token, id, status string) (*model.Record, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/records/"+url.PathEscape(id)+"/status",
		token, RecordStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	var record model.Record
	if err := c.decodeResponse(resp, &record); err != nil {
		return nil, fmt.Errorf("SetRecordStatus: %w", err)
	}
	return &record, nil
}

// DeleteRecord удаляет запись. DELETE /api/records/{id}.
func (c *Client) DeleteRecord(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/records/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	return nil
}

// VerifyRecord проверяет пароль доступа к файлу записи с ограниченным
// доступом. POST /api/records/{id}/verify. Успешная проверка возвращает
// одноразовый токен загрузки.
func (c *Client) VerifyRecord(ctx context.Context, token, id, password string) (*VerifyResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/records/"+url.PathEscape(id)+"/verify",
		token, VerifyRequest{Password: password})
	if err != nil {
		return nil, err
	}

	var verify VerifyResponse
	if err := c.decodeResponse(resp, &verify); err != nil {
		return nil, fmt.Errorf("VerifyRecord: %w", err)
	}
	return &verify, nil
}

// DownloadFile открывает поток файла записи. GET /api/records/download/{path}.
// Вызывающий обязан закрыть возвращённый io.ReadCloser.
func (c *Client) DownloadFile(ctx context.Context, token, filePath string) (io.ReadCloser, string, error) {
	encoded := make([]string, 0, 4)
	for _, part := range strings.Split(filePath, "/") {
		encoded = append(encoded, url.PathEscape(part))
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/records/download/"+strings.Join(encoded, "/"), token, nil)
	if err != nil {
		return nil, "", err
	}

	if err := c.checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", fmt.Errorf("DownloadFile: %w", err)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// --- Codex: категории и типы документов ---

// ListCategories возвращает все категории. GET /api/categories.
// Фильтрация по области видимости выполняется консолью.
func (c *Client) ListCategories(ctx context.Context, token string) ([]model.Category, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/categories", token, nil)
	if err != nil {
		return nil, err
	}

	var categories []model.Category
	if err := c.decodeResponse(resp, &categories); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return categories, nil
}

// CreateCategory создаёт категорию. POST /api/categories.
func (c *Client) CreateCategory(ctx context.Context, token string, req CategoryCreateRequest) (*model.Category, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/categories", token, req)
	if err != nil {
		return nil, err
	}

	var category model.Category
	if err := c.decodeResponse(resp, &category); err != nil {
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return &category, nil
}

// DeleteCategory удаляет категорию. DELETE /api/categories/{id}.
func (c *Client) DeleteCategory(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// ListTypes возвращает типы документов категории. GET /api/types?category_id=.
// Пустой categoryID возвращает все типы.
func (c *Client) ListTypes(ctx context.Context, token, categoryID string) ([]model.DocumentType, error) {
	path := "/api/types"
	if categoryID != "" {
		path += "?category_id=" + url.QueryEscape(categoryID)
	}

	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var types []model.DocumentType
	if err := c.decodeResponse(resp, &types); err != nil {
		return nil, fmt.Errorf("ListTypes: %w", err)
	}
	return types, nil
}

// CreateType создаёт тип документа. POST /api/types.
func (c *Client) CreateType(ctx context.Context, token string, req TypeCreateRequest) (*model.DocumentType, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/types", token, req)
	if err != nil {
		return nil, err
	}

	var docType model.DocumentType
	if err := c.decodeResponse(resp, &docType); err != nil {
		return nil, fmt.Errorf("CreateType: %w", err)
	}
	return &docType, nil
}

// DeleteType удаляет тип документа. DELETE /api/types/{id}.
func (c *Client) DeleteType(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/types/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteType: %w", err)
	}
	return nil
}

// --- Регионы ---

// ListRegions возвращает все регионы. GET /api/regions.
func (c *Client) ListRegions(ctx context.Context, token string) ([]model.Region, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/regions", token, nil)
	if err != nil {
		return nil, err
	}

	var regions []model.Region
	if err := c.decodeResponse(resp, &regions); err != nil {
		return nil, fmt.Errorf("ListRegions: %w", err)
	}
	return regions, nil
}

// CreateRegion создаёт регион. POST /api/regions.
func (c *Client) CreateRegion(ctx context.Context, token string, req RegionCreateRequest) (*model.Region, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/regions", token, req)
	if err != nil {
		return nil, err
	}

	var region model.Region
	if err := c.decodeResponse(resp, &region); err != nil {
		return nil, fmt.Errorf("CreateRegion: %w", err)
	}
	return &region, nil
}

// UpdateRegion изменяет регион. PUT /api/regions/{id}.
func (c *Client) UpdateRegion(ctx context.Context, token, id string, req RegionCreateRequest) (*model.Region, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/regions/"+url.PathEscape(id), token, req)
	if err != nil {
		return nil, err
	}

	var region model.Region
	if err := c.decodeResponse(resp, &region); err != nil {
		return nil, fmt.Errorf("UpdateRegion: %w", err)
	}
	return &region, nil
}

// SetRegionStatus меняет операционный статус региона.
// PATCH /api/regions/{id}/status.
func (c *Client) SetRegionStatus(ctx context.Context, token, id, status string) (*model.Region, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/regions/"+url.PathEscape(id)+"/status",
		token, RegionStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	var region model.Region
	if err := c.decodeResponse(resp, &region); err != nil {
		return nil, fmt.Errorf("SetRegionStatus: %w", err)
	}
	return &region, nil
}

// DeleteRegion удаляет регион. DELETE /api/regions/{id}.
func (c *Client) DeleteRegion(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/regions/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteRegion: %w", err)
	}
	return nil
}

// --- Пользователи ---

// ListUsers возвращает страницу пользователей. GET /api/users.
func (c *Client) ListUsers(ctx context.Context, token string, params UserListParams) (*UserListResponse, error) {
	q := url.Values{}
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	if params.Region != "" {
		q.Set("region", params.Region)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}

	path := "/api/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var list UserListResponse
	if err := c.decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return &list, nil
}

// GetUser возвращает пользователя по идентификатору. GET /api/users/{id}.
func (c *Client) GetUser(ctx context.Context, token, id string) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &user, nil
}

// CreateUser создаёт пользователя. POST /api/users.
func (c *Client) CreateUser(ctx context.Context, token string, input model.UserInput) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/users", token, input)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return &user, nil
}

// UpdateUser изменяет пользователя. PUT /api/users/{id}.
func (c *Client) UpdateUser(ctx context.Context, token, id string, input model.UserInput) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), token, input)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	return &user, nil
}

// SetUserStatus меняет статус учётной записи. PATCH /api/users/{id}/status.
func (c *Client) SetUserStatus(ctx context.Context, token, id, status string) (*model.User, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id)+"/status",
		token, UserStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.decodeResponse(resp, &user); err != nil {
		return nil, fmt.Errorf("SetUserStatus: %w", err)
	}
	return &user, nil
}

// DeleteUser удаляет пользователя. DELETE /api/users/{id}.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return nil
}

// --- Журнал действий ---

// ListLogs возвращает страницу журнала действий. GET /api/logs.
func (c *Client) ListLogs(ctx context.Context, token string, params AuditListParams) (*AuditListResponse, error) {
	q := url.Values{}
	if params.Username != "" {
		q.Set("username", params.Username)
	}
	if params.Action != "" {
		q.Set("action", params.Action)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}

	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}

	var list AuditListResponse
	if err := c.decodeResponse(resp, &list); err != nil {
		return nil, fmt.Errorf("ListLogs: %w", err)
	}
	return &list, nil
}

// ClearLogs очищает журнал действий. DELETE /api/logs.
func (c *Client) ClearLogs(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/logs", token, nil)
	if err != nil {
		return err
	}

	if err := c.decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("ClearLogs: %w", err)
	}
	return nil
}

// --- Настройки и резервные копии ---

// GetSettings возвращает системные настройки. GET /api/settings.
func (c *Client) GetSettings(ctx context.Context, token string) (*model.Settings, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/settings", token, nil)
	if err != nil {
		return nil, err
	}

	var settings model.Settings
	if err := c.decodeResponse(resp, &settings); err != nil {
		return nil, fmt.Errorf("GetSettings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings изменяет системные настройки. PUT /api/settings.
func (c *Client) UpdateSettings(ctx context.Context, token string, settings model.Settings) (*model.Settings, error) {
	resp, err := c.do(ctx, http.MethodPut, "/api/settings", token, settings)
	if err != nil {
		return nil, err
	}

	var updated model.Settings
	if err := c.decodeResponse(resp, &updated); err != nil {
		return nil, fmt.Errorf("UpdateSettings: %w", err)
	}
	return &updated, nil
}

// UploadLogo загружает логотип системы (брендинг).
// POST /api/settings/logo, multipart с полем logo.
func (c *Client) UploadLogo(ctx context.Context, token, filename string, logo io.Reader) (*model.Settings, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("logo", filename)
	if err != nil {
		return nil, fmt.Errorf("UploadLogo: создание multipart: %w", err)
	}
	if _, err := io.Copy(part, logo); err != nil {
		return nil, fmt.Errorf("UploadLogo: копирование файла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("UploadLogo: завершение multipart: %w", err)
	}

	resp, err := c.doMultipart(ctx, http.MethodPost, "/api/settings/logo", token, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var settings model.Settings
	if err := c.decodeResponse(resp, &settings); err != nil {
		return nil, fmt.Errorf("UploadLogo: %w", err)
	}
	return &settings, nil
}

// Backup открывает поток резервной копии базы. GET /api/backup.
// Вызывающий обязан закрыть возвращённый io.ReadCloser.
func (c *Client) Backup(ctx context.Context, token string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/backup", token, nil)
	if err != nil {
		return nil, "", err
	}

	if err := c.checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", fmt.Errorf("Backup: %w", err)
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	return resp.Body, filename, nil
}

// Restore загружает резервную копию для восстановления.
// POST /api/restore, multipart с полем backup.
func (c *Client) Restore(ctx context.Context, token, filename string, backup io.Reader) (*RestoreResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("backup", filename)
	if err != nil {
		return nil, fmt.Errorf("Restore: создание multipart: %w", err)
	}
	if _, err := io.Copy(part, backup); err != nil {
		return nil, fmt.Errorf("Restore: копирование файла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("Restore: завершение multipart: %w", err)
	}

	resp, err := c.doMultipart(ctx, http.MethodPost, "/api/restore", token, writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var result RestoreResult
	if err := c.decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("Restore: %w", err)
	}
	return &result, nil
}

// doMultipart выполняет запрос с готовым multipart-телом.
func (c *Client) doMultipart(ctx context.Context, method, path, token, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос %s %s к Backend: %w", method, path, err)
	}
	return resp, nil
}

// buildRecordForm собирает multipart-форму записи: JSON-метаданные
// и необязательный файл.
func buildRecordForm(input model.RecordInput, filename string, file io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metadata, err := json.Marshal(input)
	if err != nil {
		return nil, "", fmt.Errorf("сериализация метаданных: %w", err)
	}
	if err := writer.WriteField("metadata", string(metadata)); err != nil {
		return nil, "", fmt.Errorf("запись поля metadata: %w", err)
	}

	if file != nil {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, "", fmt.Errorf("создание поля file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("копирование файла: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("завершение multipart: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// filenameFromDisposition достаёт имя файла из Content-Disposition.
func filenameFromDisposition(disposition string) string {
	const marker = "filename="
	idx := strings.Index(disposition, marker)
	if idx < 0 {
		return ""
	}
	return strings.Trim(disposition[idx+len(marker):], `"`)
}

// --- Service account ---

// ServiceTokenSource — источник токена сервисной учётной записи
// с кэшированием: обновление за 30 секунд до истечения. Используется
// фоновой синхронизацией зеркала реестра.
type ServiceTokenSource struct {
	client   *Client
	username string
	password string
	logger   *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewServiceTokenSource создаёт источник токена сервисной учётной записи.
func NewServiceTokenSource(client *Client, username, password string, logger *slog.Logger) *ServiceTokenSource {
	return &ServiceTokenSource{
		client:   client,
		username: username,
		password: password,
		logger:   logger.With(slog.String("component", "service_token")),
	}
}

// Token возвращает актуальный токен, обновляя при необходимости.
func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверяем кэш: если токен валиден ещё 30 секунд — используем его
	if s.accessToken != "" && time.Now().Add(30*time.Second).Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	login, err := s.client.Login(ctx, s.username, s.password)
	if err != nil {
		return "", fmt.Errorf("вход сервисной учётной записи: %w", err)
	}

	s.accessToken = login.Token
	s.tokenExpiry = time.Now().Add(time.Duration(login.ExpiresIn) * time.Second)

	s.logger.Debug("токен сервисной учётной записи обновлён",
		slog.Time("expires_at", s.tokenExpiry),
	)
	return s.accessToken, nil
}

// Invalidate сбрасывает кэшированный токен. Вызывается после
// ErrSessionInvalid, чтобы следующий запрос выполнил повторный вход.
func (s *ServiceTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.tokenExpiry = time.Time{}
}
