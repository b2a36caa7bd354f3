package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/paymentgateway"
)

type AuthMock struct {
	mock.Mock
}

func (m *AuthMock) ValidateToken(ctx context.Context, token string) (access.Caller, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(access.Caller), args.Error(1)
}

type SubsMock struct {
	mock.Mock
}

func (m *SubsMock) HasActive(ctx context.Context, userID string, subType models.SubscriptionType) (bool, error) {
	args := m.Called(ctx, userID, subType)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware(t *testing.T) {
	caller := access.Caller{UserID: "u1", Email: "a@b.c", Role: models.RoleStudent}

	tests := []struct {
		name       string
		authHeader string
		mockErr    error
		setupMock  bool
		wantStatus int
		wantCalled bool
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong prefix", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer bad", setupMock: true, mockErr: models.ErrInvalidToken, wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer good", setupMock: true, wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthMock)
			token := strings.TrimPrefix(tt.authHeader, "Bearer ")
			if tt.setupMock {
				authMock.On("ValidateToken", mock.Anything, token).Return(caller, tt.mockErr)
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := middlewarectx.CallerFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, caller, got)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequire(t *testing.T) {
	student := access.Caller{UserID: "s1", Role: models.RoleStudent}
	admin := access.Caller{UserID: "a1", Role: models.RoleAdmin}

	tests := []struct {
		name       string
		caller     *access.Caller
		req        access.Requirement
		lookup     bool
		hasActive  bool
		lookupErr  error
		wantStatus int
		wantBody   string
	}{
		{name: "no caller", req: access.Authenticated, wantStatus: http.StatusUnauthorized},
		{name: "authenticated only", caller: &student, req: access.Authenticated, wantStatus: http.StatusOK},
		{name: "wrong role", caller: &student, req: access.RequireRole(models.RoleAdmin), wantStatus: http.StatusForbidden, wantBody: "insufficient permissions"},
		{name: "admin skips subscription lookup", caller: &admin, req: access.RequireSubscription(models.SubscriptionStudent), wantStatus: http.StatusOK},
		{name: "active subscription", caller: &student, req: access.RequireSubscription(models.SubscriptionStudent), lookup: true, hasActive: true, wantStatus: http.StatusOK},
		{name: "no subscription", caller: &student, req: access.RequireSubscription(models.SubscriptionStudent), lookup: true, wantStatus: http.StatusForbidden, wantBody: "active student subscription required"},
		{name: "lookup error", caller: &student, req: access.RequireSubscription(models.SubscriptionStudent), lookup: true, lookupErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := new(SubsMock)
			if tt.lookup {
				subs.On("HasActive", mock.Anything, tt.caller.UserID, tt.req.Subscription).Return(tt.hasActive, tt.lookupErr).Once()
			}

			called := false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.caller != nil {
				req = req.WithContext(middlewarectx.WithCaller(req.Context(), *tt.caller))
			}
			rr := httptest.NewRecorder()
			middlewarectx.Require(tt.req, subs, newNoopLogger())(okHandler(&called)).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if tt.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBody)
			}
			subs.AssertExpectations(t)
			if !tt.lookup {
				subs.AssertNotCalled(t, "HasActive", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	called := false
	h := middlewarectx.RateLimitMiddleware(1, 2, newNoopLogger())(okHandler(&called))

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCallbackSignature(t *testing.T) {
	body := `{"transactionId":"t1","status":"COMPLETED"}`
	secret := "s3cret"

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid signature keeps body", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(paymentgateway.SignatureHeader, paymentgateway.Sign(secret, []byte(body)))
		rr := httptest.NewRecorder()
		middlewarectx.CallbackSignature(secret, newNoopLogger())(next).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, body, seen)
	})

	t.Run("bad signature", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(paymentgateway.SignatureHeader, "deadbeef")
		rr := httptest.NewRecorder()
		middlewarectx.CallbackSignature(secret, newNoopLogger())(next).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, seen)
	})

	t.Run("no secret disables check", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		rr := httptest.NewRecorder()
		middlewarectx.CallbackSignature("", newNoopLogger())(next).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, body, seen)
	})
}
