// Package database хранит задачи, шаги агента и журнал запросов к модели.
// GORM поверх PostgreSQL или встроенного SQLite.
package database

import "time"

// Статусы задачи.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task - цель, поставленная пользователем.
type Task struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Goal          string    `gorm:"type:text;not null" json:"goal"`
	Status        string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	ResultSummary string    `gorm:"type:text" json:"result_summary"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AgentStep - один шаг прогона: команда модели и наблюдение.
type AgentStep struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     uint      `gorm:"index;not null" json:"task_id"`
	RunID      string    `gorm:"type:varchar(36);index" json:"run_id"`
	StepNo     int       `gorm:"not null" json:"step_no"`
	ActionType string    `gorm:"type:varchar(64);not null" json:"action_type"`
	Target     string    `gorm:"type:text" json:"target"`
	Thought    string    `gorm:"type:text" json:"thought"`
	Result     string    `gorm:"type:text" json:"result"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LlmLog - запрос к модели и ответ.
type LlmLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TaskID       *uint     `gorm:"index" json:"task_id,omitempty"`
	Role         string    `gorm:"type:varchar(16);not null" json:"role"`
	PromptText   string    `gorm:"type:text;not null" json:"prompt_text"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
	Model        string    `gorm:"type:varchar(128)" json:"model"`
	TokensUsed   int       `json:"tokens_used"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
