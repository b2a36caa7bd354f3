package models

import "time"

// VideoStatus статус генерации видеообъяснения.
type VideoStatus string

const (
	VideoPending   VideoStatus = "PENDING"
	VideoCompleted VideoStatus = "COMPLETED"
	VideoFailed    VideoStatus = "FAILED"
)

// Terminal сообщает, завершена ли генерация.
func (s VideoStatus) Terminal() bool {
	return s == VideoCompleted || s == VideoFailed
}

// VideoStep шаг сценария видеообъяснения.
type VideoStep struct {
	Action    string  `json:"action"`
	Content   string  `json:"content"`
	Narration string  `json:"narration"`
	Duration  float64 `json:"duration"`
}

// VideoScript сценарий, возвращаемый ИИ.
type VideoScript struct {
	Steps   []VideoStep `json:"steps"`
	Summary string      `json:"summary"`
}

// VideoSession запрос на видеообъяснение.
type VideoSession struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	SubjectID     string       `json:"subjectId"`
	AgentConfigID string       `json:"agentConfigId"`
	Question      string       `json:"question"`
	Status        VideoStatus  `json:"status"`
	Script        *VideoScript `json:"script,omitempty"`
	TextSummary   string       `json:"textSummary,omitempty"`
	VideoURL      string       `json:"videoUrl,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Subject       *Subject     `json:"subject,omitempty"`
}

// CreateVideoSessionRequest тело запроса видеообъяснения.
type CreateVideoSessionRequest struct {
	SubjectID string `json:"subjectId" validate:"required,uuid"`
	Question  string `json:"question" validate:"required"`
}
