package model

import "time"

// Статусы жизненного цикла записи реестра.
const (
	RecordStatusActive   = "Active"
	RecordStatusArchived = "Archived"
	RecordStatusDisposed = "Disposed"
)

// Статусы проверки файла записи.
const (
	VerifyStatusPending  = "Pending"
	VerifyStatusVerified = "Verified"
	VerifyStatusFailed   = "Failed"
)

// Record — запись реестра документов.
type Record struct {
	// ID — идентификатор записи в Backend
	ID string `json:"id"`
	// Title — заголовок документа
	Title string `json:"title"`
	// CategoryID — категория Codex
	CategoryID string `json:"category_id"`
	// CategoryName — имя категории (денормализовано Backend-ом)
	CategoryName string `json:"category_name"`
	// TypeID — тип документа внутри категории
	TypeID string `json:"type_id"`
	// TypeName — имя типа документа
	TypeName string `json:"type_name"`
	// Region — регион-владелец записи
	Region string `json:"region"`
	// Status — статус жизненного цикла (Active, Archived, Disposed)
	Status string `json:"status"`
	// RetentionPeriod — срок хранения, унаследованный от типа
	RetentionPeriod string `json:"retention_period"`
	// DisposalDate — вычисленная дата утилизации; nil для Permanent.
	// Хранится вместе с записью: последующее изменение правила
	// не меняет дату уже зарегистрированных записей.
	DisposalDate *time.Time `json:"disposal_date,omitempty"`
	// DocumentDate — дата документа, точка отсчёта срока хранения
	DocumentDate time.Time `json:"document_date"`
	// Restricted — доступ к файлу требует проверки пароля
	Restricted bool `json:"restricted"`
	// FilePath — путь файла в хранилище Backend (пусто, если файла нет)
	FilePath string `json:"file_path,omitempty"`
	// FileHash — контрольная сумма файла SHA-256
	FileHash string `json:"file_hash,omitempty"`
	// VerifyStatus — результат последней проверки целостности
	VerifyStatus string `json:"verify_status,omitempty"`
	// CreatedBy — логин пользователя, создавшего запись
	CreatedBy string `json:"created_by"`
	// CreatedAt — дата регистрации записи
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt — дата последнего изменения
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFile возвращает true, если к записи прикреплён файл.
func (r *Record) HasFile() bool {
	return r.FilePath != ""
}

// RecordInput — данные формы создания или изменения записи.
type RecordInput struct {
	Title        string    `json:"title"`
	CategoryID   string    `json:"category_id"`
	TypeID       string    `json:"type_id"`
	Region       string    `json:"region"`
	DocumentDate time.Time `json:"document_date"`
}
