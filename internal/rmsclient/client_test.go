package rmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bigkaa/goregistry/console-module/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock HTTP-сервер RMS Backend.
func setupMockBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, "", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return client
}

// TestClient_Login проверяет Login (POST /api/auth/login).
func TestClient_Login(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Login — публичный endpoint, не должен передавать Authorization
		if r.Header.Get("Authorization") != "" {
			t.Error("Login не должен передавать Authorization header")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("ожидался X-Request-ID header")
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("декодирование тела: %v", err)
		}
		if req.Username != "admin" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LoginResponse{
			Token:     "jwt-token",
			ExpiresIn: 3600,
			User: model.User{
				ID:       "u1",
				Username: "admin",
				Role:     "ADMIN",
				Region:   "R1",
			},
		})
	})

	login, err := client.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Ошибка Login: %v", err)
	}

	if login.Token != "jwt-token" {
		t.Errorf("ожидался Token=jwt-token, получен %s", login.Token)
	}
	if login.User.Role != "ADMIN" {
		t.Errorf("ожидалась роль ADMIN, получена %s", login.User.Role)
	}
}

// TestClient_Login_InvalidCredentials проверяет трансляцию 401.
func TestClient_Login_InvalidCredentials(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid credentials"}}`))
	})

	_, err := client.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("ожидался ErrSessionInvalid, получено: %v", err)
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("ошибка не содержит сообщение Backend: %v", err)
	}
}

// TestClient_ListRecords проверяет ListRecords с параметрами фильтрации.
func TestClient_ListRecords(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/records" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		if q.Get("region") != "R1" {
			t.Errorf("ожидался region=R1, получен %s", q.Get("region"))
		}
		if q.Get("status") != "Active" {
			t.Errorf("ожидался status=Active, получен %s", q.Get("status"))
		}
		if q.Get("page") != "2" {
			t.Errorf("ожидался page=2, получен %s", q.Get("page"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RecordListResponse{
			Records: []model.Record{
				{ID: "rec-1", Title: "Отчёт Q1", Region: "R1", Status: "Active"},
				{ID: "rec-2", Title: "Отчёт Q2", Region: "R1", Status: "Active"},
			},
			Total:   12,
			Page:    2,
			PerPage: 2,
		})
	})

	list, err := client.ListRecords(context.Background(), "test-token", RecordListParams{
		Region:  "R1",
		Status:  "Active",
		Page:    2,
		PerPage: 2,
	})
	if err != nil {
		t.Fatalf("Ошибка ListRecords: %v", err)
	}

	if list.Total != 12 {
		t.Errorf("ожидался Total=12, получен %d", list.Total)
	}
	if len(list.Records) != 2 {
		t.Fatalf("ожидалось 2 записи, получено %d", len(list.Records))
	}
	if list.Records[0].ID != "rec-1" {
		t.Errorf("ожидался ID=rec-1, получен %s", list.Records[0].ID)
	}
}

// TestClient_CreateRecord проверяет multipart-форму создания записи.
func TestClient_CreateRecord(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/records" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("ожидался multipart/form-data, получен %s", r.Header.Get("Content-Type"))
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("разбор multipart: %v", err)
		}

		var input model.RecordInput
		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &input); err != nil {
			t.Fatalf("декодирование metadata: %v", err)
		}
		if input.Title != "Договор аренды" {
			t.Errorf("ожидался Title=Договор аренды, получен %s", input.Title)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("чтение файла: %v", err)
		}
		defer file.Close()
		if header.Filename != "contract.pdf" {
			t.Errorf("ожидалось имя contract.pdf, получено %s", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "pdf-content" {
			t.Errorf("неожиданное содержимое файла: %s", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Record{ID: "rec-new", Title: input.Title})
	})

	record, err := client.CreateRecord(context.Background(), "token",
		model.RecordInput{Title: "Договор аренды", CategoryID: "c1", TypeID: "t1", Region: "R1"},
		"contract.pdf", strings.NewReader("pdf-content"))
	if err != nil {
		t.Fatalf("Ошибка CreateRecord: %v", err)
	}
	if record.ID != "rec-new" {
		t.Errorf("ожидался ID=rec-new, получен %s", record.ID)
	}
}

// TestClient_CreateRecord_NoFile проверяет создание записи без файла.
func TestClient_CreateRecord_NoFile(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("разбор multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err == nil {
			t.Error("поле file не должно присутствовать")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Record{ID: "rec-meta"})
	})

	record, err := client.CreateRecord(context.Background(), "token",
		model.RecordInput{Title: "Без файла"}, "", nil)
	if err != nil {
		t.Fatalf("Ошибка CreateRecord: %v", err)
	}
	if record.ID != "rec-meta" {
		t.Errorf("ожидался ID=rec-meta, получен %s", record.ID)
	}
}

// TestClient_VerifyRecord проверяет проверку пароля записи.
func TestClient_VerifyRecord(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/records/rec-1/verify" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req VerifyRequest
		json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if req.Password != "file-pass" {
			json.NewEncoder(w).Encode(VerifyResponse{Verified: false})
			return
		}
		json.NewEncoder(w).Encode(VerifyResponse{Verified: true, DownloadToken: "dl-token"})
	})

	verify, err := client.VerifyRecord(context.Background(), "token", "rec-1", "file-pass")
	if err != nil {
		t.Fatalf("Ошибка VerifyRecord: %v", err)
	}
	if !verify.Verified {
		t.Error("ожидался Verified=true")
	}
	if verify.DownloadToken != "dl-token" {
		t.Errorf("ожидался DownloadToken=dl-token, получен %s", verify.DownloadToken)
	}

	verify, err = client.VerifyRecord(context.Background(), "token", "rec-1", "wrong")
	if err != nil {
		t.Fatalf("Ошибка VerifyRecord: %v", err)
	}
	if verify.Verified {
		t.Error("ожидался Verified=false при неверном пароле")
	}
}

// TestClient_DownloadFile проверяет потоковую загрузку файла.
func TestClient_DownloadFile(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/records/download/2024/contract.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("binary-pdf-data"))
	})

	body, contentType, err := client.DownloadFile(context.Background(), "token", "2024/contract.pdf")
	if err != nil {
		t.Fatalf("Ошибка DownloadFile: %v", err)
	}
	defer body.Close()

	if contentType != "application/pdf" {
		t.Errorf("ожидался application/pdf, получен %s", contentType)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "binary-pdf-data" {
		t.Errorf("неожиданное содержимое: %s", data)
	}
}

// TestClient_ErrorMapping проверяет трансляцию статусов Backend
// в sentinel-ошибки.
func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "401 в ErrSessionInvalid", status: http.StatusUnauthorized,
			body: `{"error":{"code":"UNAUTHORIZED","message":"token expired"}}`, wantErr: ErrSessionInvalid},
		{name: "403 в ErrForbidden", status: http.StatusForbidden,
			body: `{"error":{"code":"FORBIDDEN","message":"scope violation"}}`, wantErr: ErrForbidden},
		{name: "404 в ErrNotFound", status: http.StatusNotFound,
			body: `{"error":{"code":"NOT_FOUND","message":"no such record"}}`, wantErr: ErrNotFound},
		{name: "409 в ErrConflict", status: http.StatusConflict,
			body: `{"error":{"code":"CONFLICT","message":"duplicate"}}`, wantErr: ErrConflict},
		{name: "400 в ErrValidation", status: http.StatusBadRequest,
			body: `{"message":"bad retention"}`, wantErr: ErrValidation},
		{name: "422 в ErrValidation", status: http.StatusUnprocessableEntity,
			body: `{"message":"bad region"}`, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetRecord(context.Background(), "token", "rec-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ожидалась ошибка %v, получена %v", tt.wantErr, err)
			}
		})
	}
}

// TestClient_Backup проверяет потоковую выгрузку резервной копии.
func TestClient_Backup(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/backup" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="backup-2026-09-01.sql.gz"`)
		w.Write([]byte("backup-bytes"))
	})

	body, filename, err := client.Backup(context.Background(), "token")
	if err != nil {
		t.Fatalf("Ошибка Backup: %v", err)
	}
	defer body.Close()

	if filename != "backup-2026-09-01.sql.gz" {
		t.Errorf("ожидалось имя backup-2026-09-01.sql.gz, получено %s", filename)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "backup-bytes" {
		t.Errorf("неожиданное содержимое: %s", data)
	}
}

// TestClient_Restore проверяет multipart-загрузку резервной копии.
func TestClient_Restore(t *testing.T) {
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/restore" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("разбор multipart: %v", err)
		}
		file, header, err := r.FormFile("backup")
		if err != nil {
			t.Fatalf("чтение поля backup: %v", err)
		}
		defer file.Close()
		if header.Filename != "backup.sql.gz" {
			t.Errorf("ожидалось имя backup.sql.gz, получено %s", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RestoreResult{Restored: true, RecordCount: 42})
	})

	result, err := client.Restore(context.Background(), "token", "backup.sql.gz",
		strings.NewReader("backup-bytes"))
	if err != nil {
		t.Fatalf("Ошибка Restore: %v", err)
	}
	if !result.Restored {
		t.Error("ожидался Restored=true")
	}
	if result.RecordCount != 42 {
		t.Errorf("ожидался RecordCount=42, получен %d", result.RecordCount)
	}
}

// TestServiceTokenSource проверяет кэширование токена сервисной
// учётной записи.
func TestServiceTokenSource(t *testing.T) {
	loginCount := 0
	client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		loginCount++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LoginResponse{Token: "svc-token", ExpiresIn: 3600})
	})

	source := NewServiceTokenSource(client, "sync-bot", "svc-pass", testLogger())

	// Первый вызов выполняет вход
	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Ошибка Token: %v", err)
	}
	if token != "svc-token" {
		t.Errorf("ожидался svc-token, получен %s", token)
	}
	if loginCount != 1 {
		t.Errorf("ожидался 1 вход, было %d", loginCount)
	}

	// Повторный вызов использует кэш
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Ошибка Token из кэша: %v", err)
	}
	if loginCount != 1 {
		t.Errorf("кэшированный токен не должен вызывать вход, входов %d", loginCount)
	}

	// Invalidate сбрасывает кэш
	source.Invalidate()
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("Ошибка Token после Invalidate: %v", err)
	}
	if loginCount != 2 {
		t.Errorf("после Invalidate ожидался повторный вход, входов %d", loginCount)
	}
}

// TestExtractMessage проверяет разбор форматов ошибок Backend.
func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "вложенный формат", input: `{"error":{"code":"X","message":"nested"}}`, want: "nested"},
		{name: "плоский формат", input: `{"message":"flat"}`, want: "flat"},
		{name: "не JSON", input: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMessage([]byte(tt.input)); got != tt.want {
				t.Errorf("extractMessage = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}
