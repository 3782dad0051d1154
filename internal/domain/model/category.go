package model

import "time"

// ScopeGlobal — область видимости категории без привязки к региону.
const ScopeGlobal = "Global"

// Category — категория Codex с правилом хранения и областью видимости.
type Category struct {
	// ID — идентификатор категории в Backend
	ID string `json:"id"`
	// Name — имя категории (Financial Records, Personnel Files, ...)
	Name string `json:"name"`
	// Scope — область видимости: Global или имя региона
	Scope string `json:"scope"`
	// Description — описание назначения категории
	Description string `json:"description,omitempty"`
	// CreatedAt — дата создания категории
	CreatedAt time.Time `json:"created_at"`
}

// DocumentType — тип документа внутри категории. Срок хранения
// наследуется всеми записями этого типа.
type DocumentType struct {
	// ID — идентификатор типа в Backend
	ID string `json:"id"`
	// CategoryID — категория, к которой относится тип
	CategoryID string `json:"category_id"`
	// Name — имя типа документа
	Name string `json:"name"`
	// RetentionPeriod — срок хранения в текстовой форме
	// ("5 Years", "18 Months", "Permanent")
	RetentionPeriod string `json:"retention_period"`
	// CreatedAt — дата создания типа
	CreatedAt time.Time `json:"created_at"`
}
