// Package aiprovider клиент OpenAI‑совместимого API chat completions.
package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/lib/metrics"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Роли сообщений в запросе к провайдеру.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message одно сообщение диалога.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request параметры одного обращения к модели.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	JSON        bool
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client обращается к /chat/completions.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// New создаёт клиента по конфигурации. Если httpClient равен nil,
// используется клиент с таймаутом из конфигурации.
func New(cfg config.AI, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		http:    httpClient,
	}
}

// DefaultModel модель, которая используется, если в конфигурации агента она не задана.
func (c *Client) DefaultModel() string {
	return c.model
}

// Complete отправляет запрос и возвращает текст первого варианта ответа.
// Любая ошибка обёрнута в models.ErrProvider.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	const op = "aiprovider.Complete"

	text, err := c.complete(ctx, req)
	if err != nil {
		metrics.AIRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrProvider, err)
	}
	metrics.AIRequests.WithLabelValues("ok").Inc()
	return text, nil
}

// CompleteJSON запрашивает ответ в формате JSON и декодирует его в out.
func (c *Client) CompleteJSON(ctx context.Context, req Request, out any) error {
	const op = "aiprovider.CompleteJSON"

	req.JSON = true
	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%s: %w: decode payload: %w", op, models.ErrProvider, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("api key is not configured")
	}

	payload := chatRequest{
		Model:       coalesce(req.Model, c.model),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if payload.Temperature == 0 {
		payload.Temperature = defaultTemperature
	}
	if payload.MaxTokens == 0 && !req.JSON {
		payload.MaxTokens = defaultMaxTokens
	}
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d after %s", resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
