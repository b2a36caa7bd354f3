package omniclass_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/app/omniclass"
	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/admin"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/auth"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/chat"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/subscriptions"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

type authStub struct {
	auth.Service
	callers map[string]access.Caller
}

func (a authStub) ValidateToken(_ context.Context, token string) (access.Caller, error) {
	c, ok := a.callers[token]
	if !ok {
		return access.Caller{}, errors.New("unknown token")
	}
	return c, nil
}

type subscriptionsStub struct {
	subscriptions.Service
	active map[string]bool
}

func (s subscriptionsStub) HasActive(_ context.Context, userID string, _ models.SubscriptionType) (bool, error) {
	return s.active[userID], nil
}

type adminStub struct{ admin.Service }

func (adminStub) Stats(context.Context) (*models.Stats, error) { return &models.Stats{}, nil }

type chatStub struct{ chat.Service }

func (chatStub) List(context.Context, string) ([]models.ChatSession, error) {
	return []models.ChatSession{}, nil
}

func newRouter() http.Handler {
	cfg := &config.Config{Env: config.EnvLocal}
	cfg.CORSOrigin = "http://localhost:3000"
	cfg.RateLimit = config.RateLimit{RPS: 100, Burst: 100}
	cfg.CallbackSecret = "secret"

	r := chi.NewRouter()
	omniclass.RegisterRoutes(r, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), omniclass.Services{
		Auth: authStub{callers: map[string]access.Caller{
			"student":    {UserID: "s1", Role: models.RoleStudent},
			"subscriber": {UserID: "s2", Role: models.RoleStudent},
			"admin":      {UserID: "a1", Role: models.RoleAdmin},
		}},
		Subscriptions: subscriptionsStub{active: map[string]bool{"s2": true}},
		Admin:         adminStub{},
		Chat:          chatStub{},
	})
	return r
}

func TestRoutes_AccessGate(t *testing.T) {
	router := newRouter()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"admin without token", http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{"admin with bad token", http.MethodGet, "/api/admin/stats", "forged", http.StatusUnauthorized},
		{"admin as student", http.MethodGet, "/api/admin/stats", "student", http.StatusForbidden},
		{"admin as admin", http.MethodGet, "/api/admin/stats", "admin", http.StatusOK},
		{"chat without subscription", http.MethodGet, "/api/chat/sessions", "student", http.StatusForbidden},
		{"chat with subscription", http.MethodGet, "/api/chat/sessions", "subscriber", http.StatusOK},
		{"chat as admin", http.MethodGet, "/api/chat/sessions", "admin", http.StatusOK},
		{"unsigned callback", http.MethodPost, "/api/payments/callback/stripe", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}
