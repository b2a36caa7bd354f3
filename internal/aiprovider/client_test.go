package aiprovider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func choice(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return string(raw)
}

func newTestClient(fn roundTripFunc) *Client {
	return New(config.AI{APIKey: "sk-test", BaseURL: "https://ai.example.com/v1/", Model: "gpt-4"},
		&http.Client{Transport: fn})
}

func TestClient_Complete(t *testing.T) {
	var captured chatRequest
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://ai.example.com/v1/chat/completions", r.URL.String())
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		return jsonResponse(http.StatusOK, choice("  Photosynthesis converts light.  ")), nil
	})

	text, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "What is photosynthesis?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light.", text)
	assert.Equal(t, "gpt-4", captured.Model)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-9)
	assert.Equal(t, 2000, captured.MaxTokens)
	assert.Nil(t, captured.ResponseFormat)
}

func TestClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   roundTripFunc
	}{
		{
			name: "transport error",
			fn: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("boom")
			},
		},
		{
			name: "non 2xx status",
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":"rate"}`), nil
			},
		},
		{
			name: "no choices",
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
			},
		},
		{
			name: "empty content",
			fn: func(*http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, choice("   ")), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.fn).Complete(context.Background(), Request{})
			require.ErrorIs(t, err, models.ErrProvider)
		})
	}
}

func TestClient_Complete_MissingKey(t *testing.T) {
	client := New(config.AI{}, &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("request must not be sent without api key")
		return nil, nil
	})})

	_, err := client.Complete(context.Background(), Request{})
	require.ErrorIs(t, err, models.ErrProvider)
	assert.Equal(t, "gpt-4", client.DefaultModel())
}

func TestClient_CompleteJSON(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		return jsonResponse(http.StatusOK, choice(`{"steps":[{"action":"write","content":"x=2","narration":"Solve","duration":5}],"summary":"x is 2"}`)), nil
	})

	var script models.VideoScript
	require.NoError(t, client.CompleteJSON(context.Background(), Request{}, &script))
	require.Len(t, script.Steps, 1)
	assert.Equal(t, "x is 2", script.Summary)

	bad := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, choice("not json")), nil
	})
	err := bad.CompleteJSON(context.Background(), Request{}, &script)
	require.ErrorIs(t, err, models.ErrProvider)
}

func TestChatRequest(t *testing.T) {
	cfg := models.AgentConfig{SystemPrompt: "You tutor chemistry.", Temperature: 0.3, MaxTokens: 500, Model: "gpt-4o"}
	history := []models.ChatMessage{
		{Role: models.MessageUser, Content: "hi"},
		{Role: models.MessageAssistant, Content: "hello"},
	}

	req := ChatRequest(cfg, history, "what is a mole?")

	require.Len(t, req.Messages, 4)
	assert.Equal(t, Message{Role: RoleSystem, Content: "You tutor chemistry."}, req.Messages[0])
	assert.Equal(t, RoleAssistant, req.Messages[2].Role)
	assert.Equal(t, Message{Role: RoleUser, Content: "what is a mole?"}, req.Messages[3])
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
}

func TestGeneratorRequests(t *testing.T) {
	subject := models.Subject{Name: "Chemistry", Level: models.LevelAdvanced}
	syllabus := &models.Syllabus{Content: json.RawMessage(`{"topics":["Moles"]}`)}

	video := VideoScriptRequest(models.AgentConfig{SystemPrompt: "Be clear."}, subject, "Balance H2 + O2")
	assert.Contains(t, video.Messages[1].Content, "expert Chemistry teacher for advanced level")
	assert.Contains(t, video.Messages[1].Content, "Be clear.")

	plan := LessonPlanRequest("gpt-4", subject, syllabus, "Moles", 40, []string{"notes.pdf"})
	assert.Contains(t, plan.Messages[1].Content, `"Moles"`)
	assert.Contains(t, plan.Messages[1].Content, "40 minutes")
	assert.Contains(t, plan.Messages[1].Content, "notes.pdf")

	scheme := SchemeRequest("gpt-4", subject, nil, "First", 2025)
	assert.Contains(t, scheme.Messages[1].Content, "First term, 2025")
	assert.Contains(t, scheme.Messages[1].Content, "Syllabus: {}")

	quiz := AssessmentRequest("gpt-4", subject, "Moles", models.AssessmentQuiz, 0)
	assert.Contains(t, quiz.Messages[1].Content, "Generate a quiz")
	assert.Contains(t, quiz.Messages[1].Content, "Create 10 questions")
	assert.InDelta(t, 0.8, quiz.Temperature, 1e-9)
}
