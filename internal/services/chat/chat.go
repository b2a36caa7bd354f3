// Package chat реализует сессии диалога с ИИ‑репетитором по предмету.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/aiprovider"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// DefaultTitle название сессии, если пользователь его не задал.
const DefaultTitle = "New Chat"

// Repository описывает хранилище сессий чата.
type Repository interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	GetDefaultAgentConfig(ctx context.Context, subjectID string) (*models.AgentConfig, error)
	GetAgentConfig(ctx context.Context, id string) (*models.AgentConfig, error)
	CreateChatSession(ctx context.Context, session models.ChatSession) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
	GetChatSession(ctx context.Context, id, userID string) (*models.ChatSession, error)
	AddChatMessages(ctx context.Context, sessionID string, messages ...models.ChatMessage) ([]models.ChatMessage, error)
	DeleteChatSession(ctx context.Context, id, userID string) error
}

// Completer генерирует ответ модели.
type Completer interface {
	Complete(ctx context.Context, req aiprovider.Request) (string, error)
}

// Service ведёт диалоги пользователей с ИИ.
type Service struct {
	repo Repository
	ai   Completer
	log  *slog.Logger
}

// NewService создаёт сервис чата.
func NewService(repo Repository, ai Completer, log *slog.Logger) *Service {
	return &Service{repo: repo, ai: ai, log: log}
}

// Create открывает сессию с системным агентом предмета.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateChatSessionRequest) (*models.ChatSession, error) {
	const op = "chat.Create"

	subject, err := s.repo.GetSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	agent, err := s.repo.GetDefaultAgentConfig(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAgentNotConfigured)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	session, err := s.repo.CreateChatSession(ctx, models.ChatSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		SubjectID:     subject.ID,
		AgentConfigID: agent.ID,
		Title:         title,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session.Subject = subject
	return session, nil
}

// List возвращает сессии пользователя с последним сообщением.
func (s *Service) List(ctx context.Context, userID string) ([]models.ChatSession, error) {
	const op = "chat.List"

	sessions, err := s.repo.ListChatSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}

// Get возвращает сессию пользователя со всеми сообщениями.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	const op = "chat.Get"

	session, err := s.repo.GetChatSession(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// Send сохраняет сообщение пользователя, запрашивает ответ модели и сохраняет его.
// Если провайдер не ответил, сообщение пользователя остаётся в сессии.
func (s *Service) Send(ctx context.Context, sessionID, userID string, req models.SendMessageRequest) (*models.ChatExchange, error) {
	const op = "chat.Send"

	session, err := s.repo.GetChatSession(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	agent, err := s.repo.GetAgentConfig(ctx, session.AgentConfigID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.repo.AddChatMessages(ctx, session.ID, models.ChatMessage{
		ID:          uuid.NewString(),
		Role:        models.MessageUser,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	userMsg := saved[0]

	reply, err := s.ai.Complete(ctx, aiprovider.ChatRequest(*agent, session.Messages, req.Content))
	if err != nil {
		s.log.Warn("assistant reply failed", sl.Err(err), slog.String("session_id", session.ID))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err = s.repo.AddChatMessages(ctx, session.ID, models.ChatMessage{
		ID:      uuid.NewString(),
		Role:    models.MessageAssistant,
		Content: reply,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.ChatExchange{UserMessage: &userMsg, AssistantMessage: &saved[0]}, nil
}

// Delete удаляет сессию пользователя вместе с сообщениями.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	const op = "chat.Delete"

	if err := s.repo.DeleteChatSession(ctx, id, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
