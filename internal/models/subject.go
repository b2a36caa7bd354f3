package models

import (
	"encoding/json"
	"time"
)

// Level уровень предмета.
type Level string

const (
	LevelOrdinary Level = "ORDINARY"
	LevelAdvanced Level = "ADVANCED"
)

// Subject учебный предмет каталога.
type Subject struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Level       Level        `json:"level"`
	Description string       `json:"description"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Syllabus    *Syllabus    `json:"syllabus,omitempty"`
	AgentConfig *AgentConfig `json:"agentConfig,omitempty"`
}

// Syllabus учебная программа предмета; актуальной считается последняя по CreatedAt.
type Syllabus struct {
	ID        string          `json:"id"`
	SubjectID string          `json:"subjectId"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AgentConfig настройки генерации ИИ для предмета.
// InstructorID равен nil у системной конфигурации по умолчанию.
type AgentConfig struct {
	ID           string    `json:"id"`
	SubjectID    string    `json:"subjectId"`
	InstructorID *string   `json:"instructorId"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"systemPrompt"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"maxTokens"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SubjectFilter фильтр списка предметов.
type SubjectFilter struct {
	Level Level
}

// SubjectRequest тело запроса создания или изменения предмета.
type SubjectRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Level        Level  `json:"level" validate:"required,oneof=ORDINARY ADVANCED"`
	Description  string `json:"description"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// SyllabusRequest тело запроса добавления программы.
type SyllabusRequest struct {
	Title   string          `json:"title" validate:"required"`
	Content json.RawMessage `json:"content" validate:"required"`
}
