package chat_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/aiprovider"
	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/services/chat"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subject), args.Error(1)
}

func (m *RepoMock) GetDefaultAgentConfig(ctx context.Context, subjectID string) (*models.AgentConfig, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentConfig), args.Error(1)
}

func (m *RepoMock) GetAgentConfig(ctx context.Context, id string) (*models.AgentConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AgentConfig), args.Error(1)
}

func (m *RepoMock) CreateChatSession(ctx context.Context, session models.ChatSession) (*models.ChatSession, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == true {
		return &session, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *RepoMock) ListChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSession), args.Error(1)
}

func (m *RepoMock) GetChatSession(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *RepoMock) AddChatMessages(ctx context.Context, sessionID string, messages ...models.ChatMessage) ([]models.ChatMessage, error) {
	args := m.Called(ctx, sessionID, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == true {
		out := make([]models.ChatMessage, len(messages))
		for i, msg := range messages {
			msg.SessionID = sessionID
			out[i] = msg
		}
		return out, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *RepoMock) DeleteChatSession(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

type CompleterMock struct {
	mock.Mock
}

func (m *CompleterMock) Complete(ctx context.Context, req aiprovider.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newService(repo *RepoMock, ai *CompleterMock) *chat.Service {
	return chat.NewService(repo, ai, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func withRole(role models.MessageRole) any {
	return mock.MatchedBy(func(msgs []models.ChatMessage) bool {
		return len(msgs) == 1 && msgs[0].Role == role
	})
}

func TestService_Create(t *testing.T) {
	t.Run("uses default agent and title", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubject", mock.Anything, "s-1").Return(&models.Subject{ID: "s-1", Name: "Physics"}, nil).Once()
		repo.On("GetDefaultAgentConfig", mock.Anything, "s-1").Return(&models.AgentConfig{ID: "a-1"}, nil).Once()
		repo.On("CreateChatSession", mock.Anything, mock.MatchedBy(func(s models.ChatSession) bool {
			return s.UserID == "u-1" && s.AgentConfigID == "a-1" && s.Title == chat.DefaultTitle
		})).Return(true, nil).Once()

		session, err := newService(repo, new(CompleterMock)).Create(context.Background(), "u-1",
			models.CreateChatSessionRequest{SubjectID: "s-1"})
		require.NoError(t, err)
		assert.Equal(t, "Physics", session.Subject.Name)
	})

	t.Run("subject without agent", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubject", mock.Anything, "s-1").Return(&models.Subject{ID: "s-1"}, nil).Once()
		repo.On("GetDefaultAgentConfig", mock.Anything, "s-1").Return(nil, models.ErrNotFound).Once()

		_, err := newService(repo, new(CompleterMock)).Create(context.Background(), "u-1",
			models.CreateChatSessionRequest{SubjectID: "s-1"})
		require.ErrorIs(t, err, models.ErrAgentNotConfigured)
	})

	t.Run("missing subject", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubject", mock.Anything, "s-1").Return(nil, models.ErrNotFound).Once()

		_, err := newService(repo, new(CompleterMock)).Create(context.Background(), "u-1",
			models.CreateChatSessionRequest{SubjectID: "s-1"})
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_Send(t *testing.T) {
	session := &models.ChatSession{
		ID: "c-1", UserID: "u-1", AgentConfigID: "a-1",
		Messages: []models.ChatMessage{
			{Role: models.MessageUser, Content: "What is a vector?"},
			{Role: models.MessageAssistant, Content: "A quantity with direction."},
		},
	}
	agent := &models.AgentConfig{ID: "a-1", SystemPrompt: "You are a physics tutor", Model: "gpt-4", Temperature: 0.7, MaxTokens: 2000}

	t.Run("persists both messages", func(t *testing.T) {
		repo := new(RepoMock)
		ai := new(CompleterMock)
		repo.On("GetChatSession", mock.Anything, "c-1", "u-1").Return(session, nil).Once()
		repo.On("GetAgentConfig", mock.Anything, "a-1").Return(agent, nil).Once()
		repo.On("AddChatMessages", mock.Anything, "c-1", withRole(models.MessageUser)).Return(true, nil).Once()
		ai.On("Complete", mock.Anything, mock.MatchedBy(func(req aiprovider.Request) bool {
			return len(req.Messages) == 4 &&
				req.Messages[0].Role == aiprovider.RoleSystem &&
				req.Messages[0].Content == agent.SystemPrompt &&
				req.Messages[3].Content == "And a scalar?"
		})).Return("A quantity without direction.", nil).Once()
		repo.On("AddChatMessages", mock.Anything, "c-1", withRole(models.MessageAssistant)).Return(true, nil).Once()

		ex, err := newService(repo, ai).Send(context.Background(), "c-1", "u-1", models.SendMessageRequest{Content: "And a scalar?"})
		require.NoError(t, err)
		assert.Equal(t, "And a scalar?", ex.UserMessage.Content)
		assert.Equal(t, "A quantity without direction.", ex.AssistantMessage.Content)
		repo.AssertExpectations(t)
	})

	t.Run("provider failure keeps user message", func(t *testing.T) {
		repo := new(RepoMock)
		ai := new(CompleterMock)
		repo.On("GetChatSession", mock.Anything, "c-1", "u-1").Return(session, nil).Once()
		repo.On("GetAgentConfig", mock.Anything, "a-1").Return(agent, nil).Once()
		repo.On("AddChatMessages", mock.Anything, "c-1", withRole(models.MessageUser)).Return(true, nil).Once()
		ai.On("Complete", mock.Anything, mock.Anything).Return("", fmt.Errorf("aiprovider.Complete: %w", models.ErrProvider)).Once()

		_, err := newService(repo, ai).Send(context.Background(), "c-1", "u-1", models.SendMessageRequest{Content: "Hi"})
		require.ErrorIs(t, err, models.ErrProvider)
		repo.AssertNumberOfCalls(t, "AddChatMessages", 1)
	})

	t.Run("foreign session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetChatSession", mock.Anything, "c-1", "u-2").Return(nil, models.ErrNotFound).Once()

		_, err := newService(repo, new(CompleterMock)).Send(context.Background(), "c-1", "u-2", models.SendMessageRequest{Content: "Hi"})
		require.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "AddChatMessages", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Delete(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteChatSession", mock.Anything, "c-1", "u-2").Return(models.ErrNotFound).Once()

	err := newService(repo, new(CompleterMock)).Delete(context.Background(), "c-1", "u-2")
	require.ErrorIs(t, err, models.ErrNotFound)
}
