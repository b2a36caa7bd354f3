package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/chat"
	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, userID string, req models.CreateChatSessionRequest) (*models.ChatSession, error) {
	args := m.Called(ctx, userID, req)
	res, _ := args.Get(0).(*models.ChatSession)
	return res, args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context, userID string) ([]models.ChatSession, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]models.ChatSession)
	return res, args.Error(1)
}

func (m *ServiceMock) Get(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	args := m.Called(ctx, id, userID)
	res, _ := args.Get(0).(*models.ChatSession)
	return res, args.Error(1)
}

func (m *ServiceMock) Send(ctx context.Context, sessionID, userID string, req models.SendMessageRequest) (*models.ChatExchange, error) {
	args := m.Called(ctx, sessionID, userID, req)
	res, _ := args.Get(0).(*models.ChatExchange)
	return res, args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func newRouter(svc *ServiceMock, errs response.Errors) http.Handler {
	h := chat.New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, errs)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := access.Caller{UserID: "u1", Role: models.RoleStudent}
			next.ServeHTTP(w, r.WithContext(middlewarectx.WithCaller(r.Context(), caller)))
		})
	})
	r.Post("/sessions", h.Create)
	r.Get("/sessions", h.List)
	r.Get("/sessions/{id}", h.Get)
	r.Post("/sessions/{id}/messages", h.Send)
	r.Delete("/sessions/{id}", h.Delete)
	return r
}

func serve(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return rec.Code, got
}

func TestHandler_Send(t *testing.T) {
	req := models.SendMessageRequest{Content: "What is photosynthesis?"}

	tests := []struct {
		name       string
		body       string
		mockRes    *models.ChatExchange
		mockErr    error
		callSvc    bool
		detail     bool
		wantStatus int
		wantError  string
		wantDetail bool
	}{
		{
			name: "reply",
			body: `{"content":"What is photosynthesis?"}`,
			mockRes: &models.ChatExchange{
				UserMessage:      &models.ChatMessage{Role: models.MessageUser, Content: req.Content},
				AssistantMessage: &models.ChatMessage{Role: models.MessageAssistant, Content: "It is..."},
			},
			callSvc:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "provider failure",
			body:       `{"content":"What is photosynthesis?"}`,
			mockErr:    fmt.Errorf("chat.Send: %w", models.ErrProvider),
			callSvc:    true,
			wantStatus: http.StatusBadGateway,
			wantError:  models.ErrProvider.Error(),
		},
		{
			name:       "foreign session",
			body:       `{"content":"What is photosynthesis?"}`,
			mockErr:    fmt.Errorf("chat.Send: %w", models.ErrNotFound),
			callSvc:    true,
			wantStatus: http.StatusNotFound,
			wantError:  "not found",
		},
		{
			name:       "empty content",
			body:       `{"content":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "internal error with detail",
			body:       `{"content":"What is photosynthesis?"}`,
			mockErr:    errors.New("connection reset"),
			callSvc:    true,
			detail:     true,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
			wantDetail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callSvc {
				svc.On("Send", mock.Anything, "s1", "u1", req).Return(tt.mockRes, tt.mockErr).Once()
			}

			code, got := serve(t, newRouter(svc, response.Errors{Detail: tt.detail}), http.MethodPost, "/sessions/s1/messages", tt.body)

			assert.Equal(t, tt.wantStatus, code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}
			if tt.wantDetail {
				assert.Equal(t, "connection reset", got["detail"])
			} else {
				assert.Nil(t, got["detail"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_Sessions(t *testing.T) {
	svc := new(ServiceMock)
	h := newRouter(svc, response.Errors{})
	subjectID := "0f8fad5b-d9cb-469f-a165-70867728950e"

	svc.On("Create", mock.Anything, "u1", models.CreateChatSessionRequest{SubjectID: subjectID}).
		Return(&models.ChatSession{ID: "s1", Title: "New Chat"}, nil).Once()
	code, got := serve(t, h, http.MethodPost, "/sessions", `{"subjectId":"`+subjectID+`"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "New Chat", got["data"].(map[string]any)["title"])

	svc.On("List", mock.Anything, "u1").Return([]models.ChatSession{{ID: "s1"}}, nil).Once()
	code, got = serve(t, h, http.MethodGet, "/sessions", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, got["data"], 1)

	svc.On("Delete", mock.Anything, "s1", "u1").Return(nil).Once()
	code, _ = serve(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusOK, code)

	svc.On("Get", mock.Anything, "s1", "u1").Return(nil, fmt.Errorf("chat.Get: %w", models.ErrNotFound)).Once()
	code, _ = serve(t, h, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, code)

	svc.AssertExpectations(t)
}
