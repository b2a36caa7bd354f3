package models

import (
	"encoding/json"
	"time"
)

// MessageRole автор сообщения в чате.
type MessageRole string

const (
	MessageUser      MessageRole = "USER"
	MessageAssistant MessageRole = "ASSISTANT"
)

// ChatSession сессия диалога с ИИ‑репетитором.
type ChatSession struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	SubjectID     string        `json:"subjectId"`
	AgentConfigID string        `json:"agentConfigId"`
	Title         string        `json:"title"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Subject       *Subject      `json:"subject,omitempty"`
	Messages      []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage сообщение сессии. Сообщения только добавляются.
type ChatMessage struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"sessionId"`
	Role        MessageRole     `json:"role"`
	Content     string          `json:"content"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateChatSessionRequest тело запроса создания сессии.
type CreateChatSessionRequest struct {
	SubjectID string `json:"subjectId" validate:"required,uuid"`
	Title     string `json:"title" validate:"omitempty,max=200"`
}

// SendMessageRequest тело запроса отправки сообщения.
type SendMessageRequest struct {
	Content     string          `json:"content" validate:"required"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
}

// ChatExchange результат одного обмена сообщениями.
type ChatExchange struct {
	UserMessage      *ChatMessage `json:"userMessage"`
	AssistantMessage *ChatMessage `json:"assistantMessage"`
}
